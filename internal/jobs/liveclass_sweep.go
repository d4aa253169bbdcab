package jobs

import (
	"context"
	"log"
	"time"

	"aulago/backend/internal/config"
	"aulago/backend/internal/repository"
)

// StartLiveClassSweep periodically advances live-class statuses: SCHEDULED
// classes whose start time has passed become LIVE, LIVE classes whose duration
// has elapsed become FINISHED.
func StartLiveClassSweep(ctx context.Context, cfg config.Config, store *repository.Store) {
	if !cfg.LiveClassSweepEnabled {
		return
	}
	interval := cfg.LiveClassSweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				touched, err := store.SweepLiveClassStatuses(tickCtx, time.Now().UTC())
				cancel()
				if err != nil {
					log.Printf("live class sweep error: %v", err)
					continue
				}
				if touched > 0 {
					log.Printf("live class sweep advanced %d classes", touched)
				}
			}
		}
	}()
}
