package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/registry"
)

// Mapper converts seed entries to domain entities.
type Mapper struct {
	now func() time.Time
}

func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapStatuses validates and converts status entries.
func (m *Mapper) MapStatuses(cfg Config) ([]*domain.Status, error) {
	seen := make(map[string]bool, len(cfg.Statuses))
	statuses := make([]*domain.Status, 0, len(cfg.Statuses))
	for i, props := range cfg.Statuses {
		name := strings.TrimSpace(props.Name)
		if name == "" {
			return nil, fmt.Errorf("status #%d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("status %q declared twice", name)
		}
		seen[name] = true
		statuses = append(statuses, &domain.Status{Name: name, Description: props.Description})
	}
	return statuses, nil
}

// MapServices validates and converts service entries. Initial statuses must
// be declared in the same file.
func (m *Mapper) MapServices(cfg Config) ([]*domain.Service, error) {
	known := make(map[string]bool, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		known[strings.TrimSpace(s.Name)] = true
	}

	now := m.now()
	seen := make(map[string]bool, len(cfg.Services))
	services := make([]*domain.Service, 0, len(cfg.Services))
	for i, props := range cfg.Services {
		name := strings.TrimSpace(props.Name)
		if name == "" {
			return nil, fmt.Errorf("service #%d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("service %q declared twice", name)
		}
		if status := strings.TrimSpace(props.Status); status != "" && !known[status] {
			return nil, fmt.Errorf("service %q: unknown status %q", name, status)
		}
		seen[name] = true
		services = append(services, &domain.Service{Name: name, Description: props.Description, CreatedAt: now})
	}
	return services, nil
}

// Result counts what a seed pass changed.
type Result struct {
	Statuses int
	Added    int
	Existing int
	Events   int
}

// Seeder applies seed files to a registry. Applying the same file twice is
// a no-op apart from status descriptions, which are overwritten.
type Seeder struct {
	loader   *Loader
	mapper   *Mapper
	registry registry.Registry
	logger   logger.Logger
}

func NewSeeder(loader *Loader, reg registry.Registry, log logger.Logger) *Seeder {
	return &Seeder{loader: loader, mapper: NewMapper(), registry: reg, logger: log}
}

// Seed loads the file and applies it.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	cfg, err := s.loader.Load()
	if err != nil {
		return Result{}, err
	}
	res, err := s.Apply(ctx, cfg)
	if err != nil {
		return res, err
	}
	s.logger.Info("seed applied",
		logger.String("file", s.loader.Path()),
		logger.Int("statuses", res.Statuses),
		logger.Int("services_added", res.Added),
		logger.Int("services_existing", res.Existing),
		logger.Int("events", res.Events))
	return res, nil
}

// Apply writes cfg into the registry. Existing services keep their
// history; initial events are only recorded for services without events.
func (s *Seeder) Apply(ctx context.Context, cfg Config) (Result, error) {
	var res Result

	statuses, err := s.mapper.MapStatuses(cfg)
	if err != nil {
		return res, err
	}
	services, err := s.mapper.MapServices(cfg)
	if err != nil {
		return res, err
	}

	for _, st := range statuses {
		if err := s.registry.PutStatus(ctx, st); err != nil {
			return res, fmt.Errorf("put status %s: %w", st.Name, err)
		}
		res.Statuses++
	}

	for i, svc := range services {
		err := s.registry.AddService(ctx, svc)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, domain.ErrServiceExists):
			res.Existing++
		default:
			return res, fmt.Errorf("add service %s: %w", svc.Name, err)
		}

		props := cfg.Services[i]
		status := strings.TrimSpace(props.Status)
		if status == "" {
			continue
		}
		current, err := s.registry.CurrentEvent(ctx, svc.Name)
		if err != nil {
			return res, err
		}
		if current != nil {
			continue
		}
		ev := &domain.Event{
			ID:      uuid.NewString(),
			Service: svc.Name,
			Start:   svc.CreatedAt.UTC(),
			Status:  status,
			Message: props.Message,
		}
		if err := s.registry.AppendEvent(ctx, ev); err != nil {
			return res, fmt.Errorf("seed event for %s: %w", svc.Name, err)
		}
		res.Events++
	}

	return res, nil
}
