package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/ncmsync"
)

// One-shot reference sync from the command line, for backfills and for
// verifying upstream availability without touching the API.
func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall sync timeout")
	enqueue := flag.Bool("enqueue", false, "Publish a queued run instead of syncing inline")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	if !skipMigrations() {
		models.MigrateTable()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *enqueue {
		run, err := ncmsync.ScheduleSync(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "enqueue failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("queued sync run %d\n", run.ID)
		return
	}

	result, run, err := ncmsync.RunSyncNow(ctx, models.SyncTriggeredSystem)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("run %d (%s): %d processed, %d inserted, %d failed batches\n",
		run.ID, result.Source, result.Processed, result.Inserted, result.FailedBatches)
}

func skipMigrations() bool {
	return os.Getenv("SKIP_MIGRATIONS") == "true"
}
