package registry

import (
	"context"

	"github.com/jamezpolley/stashboard/internal/domain"
)

// Registry owns services, their events and the shared statuses.
//
// Implementations must be safe for concurrent use. Events returned for a
// service are always ordered by start time, newest first.
type Registry interface {
	// GetService returns domain.ErrServiceNotFound when name is unknown.
	GetService(ctx context.Context, name string) (*domain.Service, error)
	AllServices(ctx context.Context) ([]*domain.Service, error)
	// AddService returns domain.ErrServiceExists when the name is taken.
	AddService(ctx context.Context, service *domain.Service) error

	RecentEvents(ctx context.Context, service string, limit int) ([]*domain.Event, error)
	// CurrentEvent returns nil, nil when the service has no events.
	CurrentEvent(ctx context.Context, service string) (*domain.Event, error)
	AppendEvent(ctx context.Context, event *domain.Event) error

	// GetStatus returns domain.ErrStatusNotFound when name is unknown.
	GetStatus(ctx context.Context, name string) (*domain.Status, error)
	PutStatus(ctx context.Context, status *domain.Status) error
	AllStatuses(ctx context.Context) ([]*domain.Status, error)
}
