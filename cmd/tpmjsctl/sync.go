package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/db"
	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/npm"
	"github.com/tpmjs/tpmjs/pkg/registry"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run registry maintenance jobs",
	Long:  `Run registry maintenance jobs against the npm registry and the executor.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'sync' requires a subcommand (run, health, stats)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one registry sync pass",
	Long: `Run one registry sync pass.

This discovers packages carrying the registry keyword on npm, upserts
them, and extracts tool schemas through the executor.

Example:
  tpmjsctl sync run`,
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()
		cfg := config.Get()

		syncer := registry.NewSyncer(
			npm.NewClient(
				npm.WithRegistryURL(cfg.NPMRegistryURL),
				npm.WithDownloadsURL(cfg.NPMDownloadsURL),
			),
			executor.NewClient(cfg.ExecutorURL, cfg.ExecutorToken),
			gormstore.NewPackagesStore(database),
			gormstore.NewToolsStore(database),
			gormstore.NewSyncLogsStore(database),
			registry.SyncerConfig{
				Keyword:  cfg.RegistryKeyword,
				PageSize: cfg.SyncPageSize,
				Workers:  cfg.SyncWorkers,
			},
		)

		result, err := syncer.Run(context.Background(), "manual")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}

		printJSON(map[string]interface{}{
			"sync_log_id":      result.SyncLogID,
			"packages_scanned": result.Counts.Scanned,
			"packages_added":   result.Counts.Added,
			"packages_updated": result.Counts.Updated,
			"packages_failed":  result.Counts.Failed,
		})
	},
}

var syncHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run one package health sweep",
	Long: `Run one package health sweep.

Every indexed package is probed through the executor and its health
score updated.

Example:
  tpmjsctl sync health`,
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()
		cfg := config.Get()

		checker := registry.NewHealthChecker(
			executor.NewClient(cfg.ExecutorURL, cfg.ExecutorToken),
			gormstore.NewPackagesStore(database),
			gormstore.NewHealthStore(database),
		)

		result, err := checker.Run(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Health sweep failed: %v\n", err)
			os.Exit(1)
		}

		printJSON(map[string]interface{}{
			"checked":  result.Checked,
			"passing":  result.Passing,
			"degraded": result.Degraded,
			"failing":  result.Failing,
		})
	},
}

var syncStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Capture a daily stats snapshot",
	Long: `Capture a daily stats snapshot.

Counters are aggregated and upserted under today's date.

Example:
  tpmjsctl sync stats`,
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()

		snapshotter := registry.NewSnapshotter(gormstore.NewStatsStore(database))

		snap, err := snapshotter.Run(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Snapshot failed: %v\n", err)
			os.Exit(1)
		}

		printJSON(map[string]interface{}{
			"captured_on":       snap.CapturedOn,
			"total_packages":    snap.TotalPackages,
			"total_tools":       snap.TotalTools,
			"total_collections": snap.TotalCollections,
			"total_agents":      snap.TotalAgents,
			"total_downloads":   snap.TotalDownloads,
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncHealthCmd)
	syncCmd.AddCommand(syncStatsCmd)
}

func mustConnect() *gorm.DB {
	database, err := db.Connect(db.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to DB: %v\n", err)
		os.Exit(1)
	}
	return database
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
