package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/freddie-moore/scriptTok/internal/platform"
	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/models"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()
	ctx := context.Background()

	store := jobs.NewRedisStore(rdb, 0)
	retention := retentionWindow()

	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		sweepTerminalJobs(ctx, db, store, retention)
	})
	if err != nil {
		log.Fatalf("Failed to schedule retention sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	log.Printf("Scheduler started, sweeping terminal jobs older than %s hourly", retention)
	// Run once at startup so a restart doesn't delay the sweep by an hour.
	sweepTerminalJobs(ctx, db, store, retention)

	select {}
}

// retentionWindow reads RETENTION_HOURS, defaulting to 24.
func retentionWindow() time.Duration {
	hours := 24
	if raw := os.Getenv("RETENTION_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Printf("Ignoring invalid RETENTION_HOURS=%q", raw)
		} else {
			hours = parsed
		}
	}
	return time.Duration(hours) * time.Hour
}

// sweepTerminalJobs archives any successful job that slipped past the
// worker's archival, then drops terminal snapshots past the retention
// window from the job store.
func sweepTerminalJobs(ctx context.Context, db *gorm.DB, store *jobs.RedisStore, retention time.Duration) {
	snapshots, err := store.Snapshots(ctx)
	if err != nil {
		log.Printf("Retention sweep failed to list jobs: %v", err)
		return
	}

	cutoff := time.Now().UTC().Add(-retention)
	archived, pruned := 0, 0

	for _, job := range snapshots {
		if !job.Terminal() || job.UpdatedAt.After(cutoff) {
			continue
		}

		if job.Stage == jobs.StageSuccess {
			record := models.ScriptRecord{
				JobID:       job.ID,
				ProfileName: job.ProfileName,
				Topic:       job.Topic,
				Script:      job.Result,
			}
			if err := db.Where(models.ScriptRecord{JobID: job.ID}).FirstOrCreate(&record).Error; err != nil {
				log.Printf("Failed to archive job %s, keeping its snapshot: %v", job.ID, err)
				continue
			}
			archived++
		}

		if err := store.Delete(ctx, job.ID); err != nil {
			log.Printf("Failed to prune job %s: %v", job.ID, err)
			continue
		}
		pruned++
	}

	log.Printf("Retention sweep complete: %d archived, %d pruned of %d snapshots", archived, pruned, len(snapshots))
}
