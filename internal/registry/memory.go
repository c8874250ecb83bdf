package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jamezpolley/stashboard/internal/domain"
)

// Memory is an in-process Registry used in development and tests.
type Memory struct {
	mu       sync.RWMutex
	services map[string]*domain.Service // name -> Service
	events   map[string][]*domain.Event // name -> events, oldest first
	statuses map[string]*domain.Status  // name -> Status
}

// NewMemory creates an empty registry.
func NewMemory() *Memory {
	return &Memory{
		services: make(map[string]*domain.Service),
		events:   make(map[string][]*domain.Event),
		statuses: make(map[string]*domain.Status),
	}
}

var _ Registry = (*Memory)(nil)

// GetService retrieves a service by name
func (m *Memory) GetService(_ context.Context, name string) (*domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	service, ok := m.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, name)
	}
	cp := *service
	return &cp, nil
}

// AllServices returns every service sorted by name
func (m *Memory) AllServices(_ context.Context) ([]*domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	services := make([]*domain.Service, 0, len(m.services))
	for _, service := range m.services {
		cp := *service
		services = append(services, &cp)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

// AddService registers a new service, refusing to overwrite an existing one
func (m *Memory) AddService(_ context.Context, service *domain.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.services[service.Name]; ok {
		return fmt.Errorf("%w: %s", domain.ErrServiceExists, service.Name)
	}
	cp := *service
	m.services[service.Name] = &cp
	return nil
}

// RecentEvents returns up to limit events, newest first
func (m *Memory) RecentEvents(_ context.Context, service string, limit int) ([]*domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.services[service]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, service)
	}

	events := m.events[service]
	if limit <= 0 || limit > len(events) {
		limit = len(events)
	}

	recent := make([]*domain.Event, 0, limit)
	for i := len(events) - 1; i >= 0 && len(recent) < limit; i-- {
		cp := *events[i]
		recent = append(recent, &cp)
	}
	return recent, nil
}

// CurrentEvent returns the event with the latest start time
func (m *Memory) CurrentEvent(ctx context.Context, service string) (*domain.Event, error) {
	recent, err := m.RecentEvents(ctx, service, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}
	return recent[0], nil
}

// AppendEvent inserts the event keeping the service history ordered by start
func (m *Memory) AppendEvent(_ context.Context, event *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.services[event.Service]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrServiceNotFound, event.Service)
	}

	events := m.events[event.Service]
	// Insert after any event with the same start so equal timestamps keep arrival order.
	i := sort.Search(len(events), func(i int) bool { return events[i].Start.After(event.Start) })
	cp := *event
	events = append(events, nil)
	copy(events[i+1:], events[i:])
	events[i] = &cp
	m.events[event.Service] = events
	return nil
}

// GetStatus retrieves a status by name
func (m *Memory) GetStatus(_ context.Context, name string) (*domain.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStatusNotFound, name)
	}
	cp := *status
	return &cp, nil
}

// PutStatus adds or updates a status
func (m *Memory) PutStatus(_ context.Context, status *domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *status
	m.statuses[status.Name] = &cp
	return nil
}

// AllStatuses returns every status sorted by name
func (m *Memory) AllStatuses(_ context.Context) ([]*domain.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]*domain.Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		cp := *status
		statuses = append(statuses, &cp)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}
