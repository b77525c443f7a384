package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/utils"
)

// Deletes enrichment sessions that have not been touched for a while. The
// raw rows live inside the session row, so stale sessions are the main
// driver of table growth.
func main() {
	olderThanDays := flag.Int("older-than-days", 90, "Prune sessions not updated in this many days")
	ownerID := flag.String("owner-id", "", "Optional: restrict pruning to one owner")
	status := flag.String("status", "", "Optional: restrict pruning to one status (e.g. completed)")
	dryRun := flag.Bool("dry-run", true, "Show counts only (no writes)")
	confirm := flag.String("confirm", "", "Type PRUNE to proceed when dry-run=false")
	flag.Parse()

	if *olderThanDays <= 0 {
		fmt.Fprintln(os.Stderr, "--older-than-days must be positive")
		os.Exit(1)
	}
	if !*dryRun && strings.TrimSpace(*confirm) != "PRUNE" {
		fmt.Fprintln(os.Stderr, "set --confirm=PRUNE to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	// Maintenance runs across all owners; bypass the owner guard explicitly.
	ctx := utils.SetSkipOwnerScopeInContext(context.Background(), true)
	db = db.WithContext(ctx)

	cutoff := time.Now().AddDate(0, 0, -*olderThanDays)
	query := db.Model(&models.Session{}).Where("updated_at < ?", cutoff)
	if strings.TrimSpace(*ownerID) != "" {
		query = query.Where("owner_id = ?", *ownerID)
	}
	if strings.TrimSpace(*status) != "" {
		query = query.Where("status = ?", *status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "count failed: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("would delete %d sessions older than %s\n", count, cutoff.Format("2006-01-02"))
		return
	}

	deleteQuery := db.Where("updated_at < ?", cutoff)
	if strings.TrimSpace(*ownerID) != "" {
		deleteQuery = deleteQuery.Where("owner_id = ?", *ownerID)
	}
	if strings.TrimSpace(*status) != "" {
		deleteQuery = deleteQuery.Where("status = ?", *status)
	}
	result := deleteQuery.Delete(&models.Session{})
	if result.Error != nil {
		fmt.Fprintf(os.Stderr, "delete failed: %v\n", result.Error)
		os.Exit(1)
	}

	fmt.Printf("deleted %d sessions\n", result.RowsAffected)
}
