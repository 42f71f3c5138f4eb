// internals/features/subscriptions/subscriptions/scheduler/sweep.go
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"librarydesk_backend/internals/configs"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/repository"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/service"
	"librarydesk_backend/internals/helpers/reporter"
)

// RunSweep does one pass. Shared by the cron job and the admin CLI.
func RunSweep(ctx context.Context, db *gorm.DB) error {
	res, err := service.New(repository.NewGormRepository(db)).Sweep(ctx)
	if err != nil {
		return err
	}
	if res.Activated > 0 || res.Expired > 0 {
		log.Printf("[SWEEP] activated=%d expired=%d", res.Activated, res.Expired)
	}
	return nil
}

// StartSubscriptionSweep schedules RunSweep on SUBSCRIPTION_SWEEP_CRON and runs once at boot.
// The returned cron must be stopped on shutdown.
func StartSubscriptionSweep(db *gorm.DB) *cron.Cron {
	schedule := configs.GetEnv("SUBSCRIPTION_SWEEP_CRON", "5 * * * *")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := RunSweep(ctx, db); err != nil {
			reporter.Error(err, map[string]interface{}{"job": "subscription_sweep"})
		}
	}
	if _, err := c.AddFunc(schedule, job); err != nil {
		log.Fatalf("[SWEEP] invalid schedule %q: %v", schedule, err)
	}
	go job()
	c.Start()
	log.Printf("[SWEEP] started schedule=%q", schedule)
	return c
}
