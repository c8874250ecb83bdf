package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/registry"
	"github.com/jamezpolley/stashboard/internal/sources/seed"
)

func writeSeedFile(t *testing.T, path, services string) {
	t.Helper()
	content := "statuses:\n  - name: up\nservices:\n" + services
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSeedReloaderManualTrigger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeedFile(t, path, "  - name: db\n")

	reg := registry.NewMemory()
	log := logger.New("error", false)
	trigger := make(chan struct{}, 1)
	sr := NewSeedReloader(seed.NewSeeder(seed.NewLoader(path), reg, log), log, 0, trigger)

	if err := sr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sr.Stop()

	if _, err := reg.GetService(ctx, "db"); err != nil {
		t.Fatalf("initial seed missing db: %v", err)
	}

	writeSeedFile(t, path, "  - name: db\n  - name: web\n")
	trigger <- struct{}{}

	waitFor(t, func() bool {
		_, err := reg.GetService(ctx, "web")
		return err == nil
	})
}

func TestSeedReloaderPeriodic(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	writeSeedFile(t, path, "  - name: db\n")

	reg := registry.NewMemory()
	log := logger.New("error", false)
	sr := NewSeedReloader(seed.NewSeeder(seed.NewLoader(path), reg, log), log, 10*time.Millisecond, nil)
	if err := sr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sr.Stop()

	writeSeedFile(t, path, "  - name: db\n  - name: cache\n")
	waitFor(t, func() bool {
		_, err := reg.GetService(ctx, "cache")
		return err == nil
	})
}

func TestSeedReloaderInitialFailure(t *testing.T) {
	log := logger.New("error", false)
	seeder := seed.NewSeeder(seed.NewLoader("/nonexistent/seed.yaml"), registry.NewMemory(), log)
	sr := NewSeedReloader(seeder, log, time.Minute, nil)

	if err := sr.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the seed file is missing")
	}
	sr.Stop()
}
