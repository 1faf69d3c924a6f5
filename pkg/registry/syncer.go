package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/npm"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// ErrSyncInProgress is returned when a sync is already running.
var ErrSyncInProgress = errors.New("sync already in progress")

// NPMClient is the subset of the npm client the syncer uses.
type NPMClient interface {
	Search(ctx context.Context, keyword string, size, from int) (*npm.SearchPage, error)
	Packument(ctx context.Context, name string) (*npm.Packument, error)
	WeeklyDownloads(ctx context.Context, name string) (int64, error)
}

// SchemaExtractor extracts tool schemas from packages.
type SchemaExtractor interface {
	ExtractSchemas(ctx context.Context, pkg, version string) (*executor.ExtractResult, error)
}

// SyncerConfig tunes a sync pass.
type SyncerConfig struct {
	Keyword  string
	PageSize int
	Workers  int
}

// Syncer discovers and upserts registry packages from npm.
type Syncer struct {
	npm       NPMClient
	extractor SchemaExtractor
	packages  store.PackagesStore
	tools     store.ToolsStore
	logs      store.SyncLogsStore
	cfg       SyncerConfig

	running sync.Mutex
}

// NewSyncer creates a syncer.
func NewSyncer(
	npmClient NPMClient,
	extractor SchemaExtractor,
	packages store.PackagesStore,
	tools store.ToolsStore,
	logs store.SyncLogsStore,
	cfg SyncerConfig,
) *Syncer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Syncer{
		npm:       npmClient,
		extractor: extractor,
		packages:  packages,
		tools:     tools,
		logs:      logs,
		cfg:       cfg,
	}
}

// Result summarizes a finished sync pass.
type Result struct {
	SyncLogID string
	Counts    store.SyncCounts
}

// Run executes one sync pass. A second concurrent call returns
// ErrSyncInProgress without touching the log.
func (s *Syncer) Run(ctx context.Context, trigger string) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.running.Unlock()

	log, err := s.logs.StartSyncLog(trigger)
	if err != nil {
		return nil, err
	}

	counts, runErr := s.sweep(ctx)

	status := model.SyncStatusSucceeded
	errMsg := ""
	if runErr != nil {
		status = model.SyncStatusFailed
		errMsg = runErr.Error()
	}
	_ = s.logs.UpdateSyncCounts(log.SyncLogID, counts)
	if err := s.logs.FinishSyncLog(log.SyncLogID, status, errMsg); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return &Result{SyncLogID: log.SyncLogID, Counts: counts}, nil
}

func (s *Syncer) sweep(ctx context.Context) (store.SyncCounts, error) {
	var (
		mu     sync.Mutex
		counts store.SyncCounts
	)

	names := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				added, err := s.syncPackage(ctx, name)
				mu.Lock()
				counts.Scanned++
				switch {
				case err != nil:
					counts.Failed++
				case added:
					counts.Added++
				default:
					counts.Updated++
				}
				mu.Unlock()
			}
		}()
	}

	var pageErr error
	from := 0
	for {
		page, err := s.npm.Search(ctx, s.cfg.Keyword, s.cfg.PageSize, from)
		if err != nil {
			pageErr = err
			break
		}
		for _, result := range page.Results {
			select {
			case names <- result.Name:
			case <-ctx.Done():
				pageErr = ctx.Err()
			}
			if pageErr != nil {
				break
			}
		}
		from += len(page.Results)
		if pageErr != nil || len(page.Results) == 0 || from >= page.Total {
			break
		}
	}
	close(names)
	wg.Wait()

	return counts, pageErr
}

// syncPackage fetches one package's metadata and downloads, upserts it, and
// re-extracts schemas when the published version changed.
func (s *Syncer) syncPackage(ctx context.Context, name string) (added bool, err error) {
	packument, err := s.npm.Packument(ctx, name)
	if err != nil {
		return false, err
	}
	downloads, err := s.npm.WeeklyDownloads(ctx, name)
	if err != nil {
		return false, err
	}

	previous, err := s.packages.FindPackage(name)
	if err != nil && !errors.Is(err, store.ErrPackageNotFound) {
		return false, err
	}
	isNew := previous == nil
	versionChanged := isNew || previous.Version != packument.Version

	stored, err := s.packages.UpsertPackage(model.Package{
		Name:        packument.Name,
		Description: packument.Description,
		Version:     packument.Version,
		Keywords:    model.StringSlice(packument.Keywords),
		Readme:      packument.Readme,
		Downloads:   downloads,
		Deprecated:  packument.Deprecated,
	})
	if err != nil {
		return false, err
	}

	if versionChanged {
		if err := s.extractTools(ctx, stored); err != nil {
			return isNew, err
		}
	}
	return isNew, nil
}

func (s *Syncer) extractTools(ctx context.Context, pkg *model.Package) error {
	result, err := s.extractor.ExtractSchemas(ctx, pkg.Name, pkg.Version)
	if err != nil {
		return err
	}

	extracted := make([]model.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tool := model.Tool{
			Name:        t.Name,
			Description: t.Description,
			Extraction:  model.ExtractionExtracted,
		}
		if t.Error != "" {
			tool.Extraction = model.ExtractionFailed
			tool.ExtractionError = t.Error
		} else {
			tool.InputSchema = model.JSONMap(t.InputSchema)
		}
		extracted = append(extracted, tool)
	}
	return s.tools.ReplaceTools(pkg.PackageID, extracted)
}
