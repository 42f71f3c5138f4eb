package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	helperAuth "librarydesk_backend/internals/helpers/auth"
)

// StartBlacklistCleanupScheduler purges expired logout entries once a day.
func StartBlacklistCleanupScheduler(db *gorm.DB) {
	go func() {
		for {
			log.Println("[CLEANUP] purging token_blacklist...")

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := helperAuth.PurgeExpired(ctx, db)
			cancel()

			switch {
			case err != nil:
				log.Printf("[CLEANUP ERROR] purge token_blacklist: %v", err)
			case n > 0:
				log.Printf("[CLEANUP] %d expired tokens removed", n)
			default:
				log.Println("[CLEANUP] nothing to purge")
			}

			time.Sleep(24 * time.Hour)
		}
	}()
}
