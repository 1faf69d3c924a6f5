package registry

import (
	"context"
	"sync"
	"time"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Snapshotter captures one stats snapshot per day.
type Snapshotter struct {
	stats store.StatsStore
	now   func() time.Time
}

// NewSnapshotter creates a snapshotter.
func NewSnapshotter(stats store.StatsStore) *Snapshotter {
	return &Snapshotter{stats: stats, now: time.Now}
}

// Run gathers the aggregates concurrently and upserts today's snapshot.
func (s *Snapshotter) Run(ctx context.Context) (*model.StatsSnapshot, error) {
	snapshot := model.StatsSnapshot{
		CapturedOn: s.now().UTC().Format("2006-01-02"),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	gather := func(dst *int64, fn func() (int64, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := fn()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			*dst = n
		}()
	}

	gather(&snapshot.TotalPackages, s.stats.CountPackages)
	gather(&snapshot.TotalTools, s.stats.CountTools)
	gather(&snapshot.TotalCollections, s.stats.CountCollections)
	gather(&snapshot.TotalAgents, s.stats.CountAgents)
	gather(&snapshot.TotalDownloads, s.stats.TotalDownloads)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := s.stats.UpsertSnapshot(snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
