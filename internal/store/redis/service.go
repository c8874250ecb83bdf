package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/registry"
)

// Store handles Redis operations for services, events, statuses and subscriptions.
// It satisfies both registry.Registry and subscription.Store.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

var _ registry.Registry = (*Store)(nil)

// Ping checks the connection to Redis
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// AddService stores a new service. SETNX makes the existence check and
// the write a single step, so two concurrent adds cannot both win.
func (s *Store) AddService(ctx context.Context, service *domain.Service) error {
	data, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("failed to marshal service: %w", err)
	}

	created, err := s.client.SetNX(ctx, ServiceKey(service.Name), data, 0).Result()
	if err != nil {
		return &domain.StoreError{Op: "add service", Err: err}
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrServiceExists, service.Name)
	}

	// Add to set of all services
	if err := s.client.SAdd(ctx, KeyAllServices, service.Name).Err(); err != nil {
		return &domain.StoreError{Op: "index service", Err: err}
	}

	return nil
}

// GetService retrieves a service from Redis by name
func (s *Store) GetService(ctx context.Context, name string) (*domain.Service, error) {
	data, err := s.client.Get(ctx, ServiceKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, name)
		}
		return nil, &domain.StoreError{Op: "get service", Err: err}
	}

	var service domain.Service
	if err := json.Unmarshal(data, &service); err != nil {
		return nil, fmt.Errorf("failed to unmarshal service: %w", err)
	}

	return &service, nil
}

// AllServices retrieves all services from Redis, sorted by name
func (s *Store) AllServices(ctx context.Context) ([]*domain.Service, error) {
	names, err := s.client.SMembers(ctx, KeyAllServices).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "list services", Err: err}
	}

	if len(names) == 0 {
		return []*domain.Service{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.Get(ctx, ServiceKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, &domain.StoreError{Op: "load services", Err: err}
	}

	services := make([]*domain.Service, 0, len(names))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Skip services that couldn't be retrieved
			continue
		}
		var service domain.Service
		if err := json.Unmarshal(data, &service); err != nil {
			continue
		}
		services = append(services, &service)
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

func (s *Store) requireService(ctx context.Context, name string) error {
	n, err := s.client.Exists(ctx, ServiceKey(name)).Result()
	if err != nil {
		return &domain.StoreError{Op: "check service", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrServiceNotFound, name)
	}
	return nil
}

// AppendEvent adds an event to the service's sorted set, scored by start time
// in microseconds so ZREVRANGE always yields newest first.
func (s *Store) AppendEvent(ctx context.Context, event *domain.Event) error {
	if err := s.requireService(ctx, event.Service); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	z := redis.Z{Score: float64(event.Start.UnixMicro()), Member: data}
	if err := s.client.ZAdd(ctx, EventsKey(event.Service), z).Err(); err != nil {
		return &domain.StoreError{Op: "append event", Err: err}
	}
	return nil
}

// RecentEvents returns up to limit events, newest first. limit <= 0 means all.
func (s *Store) RecentEvents(ctx context.Context, service string, limit int) ([]*domain.Event, error) {
	if err := s.requireService(ctx, service); err != nil {
		return nil, err
	}

	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}

	raw, err := s.client.ZRevRange(ctx, EventsKey(service), 0, stop).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "recent events", Err: err}
	}

	events := make([]*domain.Event, 0, len(raw))
	for _, member := range raw {
		var event domain.Event
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, &event)
	}
	return events, nil
}

// CurrentEvent returns the newest event, or nil if the service has none
func (s *Store) CurrentEvent(ctx context.Context, service string) (*domain.Event, error) {
	events, err := s.RecentEvents(ctx, service, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

// PutStatus stores or replaces a status
func (s *Store) PutStatus(ctx context.Context, status *domain.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, StatusKey(status.Name), data, 0)
	pipe.SAdd(ctx, KeyAllStatuses, status.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return &domain.StoreError{Op: "put status", Err: err}
	}
	return nil
}

// GetStatus retrieves a status by name
func (s *Store) GetStatus(ctx context.Context, name string) (*domain.Status, error) {
	data, err := s.client.Get(ctx, StatusKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStatusNotFound, name)
		}
		return nil, &domain.StoreError{Op: "get status", Err: err}
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// AllStatuses returns every status, sorted by name
func (s *Store) AllStatuses(ctx context.Context) ([]*domain.Status, error) {
	names, err := s.client.SMembers(ctx, KeyAllStatuses).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "list statuses", Err: err}
	}
	sort.Strings(names)

	statuses := make([]*domain.Status, 0, len(names))
	for _, name := range names {
		status, err := s.GetStatus(ctx, name)
		if err != nil {
			// Skip statuses that couldn't be retrieved
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
