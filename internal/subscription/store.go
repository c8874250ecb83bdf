package subscription

import (
	"context"

	"github.com/jamezpolley/stashboard/internal/domain"
)

// Store owns subscription records.
//
// Uniqueness of (address, service) is enforced by the store itself: Add is
// an atomic insert-if-absent and Remove an atomic delete-if-present, so
// concurrent duplicate requests can never create two records.
type Store interface {
	// Add returns domain.ErrAlreadySubscribed if the pair exists.
	Add(ctx context.Context, sub domain.Subscription) error
	// Remove returns domain.ErrNotSubscribed if the pair does not exist.
	Remove(ctx context.Context, address, service string) error
	// Find returns nil, nil when the pair does not exist.
	Find(ctx context.Context, address, service string) (*domain.Subscription, error)
	// ListSubscribers returns the addresses subscribed to service, in no particular order.
	ListSubscribers(ctx context.Context, service string) ([]string, error)
	// ListByAddress returns every subscription held by address.
	ListByAddress(ctx context.Context, address string) ([]domain.Subscription, error)
}
