package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/sources/seed"
)

// SeedReloader re-applies the seed file periodically and on demand.
type SeedReloader struct {
	seeder        *seed.Seeder
	logger        logger.Logger
	interval      time.Duration
	manualTrigger <-chan struct{}

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewSeedReloader creates a reloader. A zero interval disables periodic
// reloads; manual triggers still work.
func NewSeedReloader(
	seeder *seed.Seeder,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *SeedReloader {
	return &SeedReloader{
		seeder:        seeder,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start applies the seed once, then keeps reloading in the background.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed failed: %w", err)
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if sr.interval > 0 {
		ticker = time.NewTicker(sr.interval)
		tick = ticker.C
	}

	sr.started = true
	go func() {
		defer close(sr.done)
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				sr.reloadLogged(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("manual reload triggered")
				sr.reloadLogged(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the background loop and waits for it to exit.
func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
	if sr.started {
		<-sr.done
	}
}

func (sr *SeedReloader) Reload(ctx context.Context) error {
	_, err := sr.seeder.Seed(ctx)
	return err
}

func (sr *SeedReloader) reloadLogged(ctx context.Context) {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Error("failed to reload seed file", logger.Error(err))
	}
}
