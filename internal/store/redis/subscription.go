package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/subscription"
)

var _ subscription.Store = (*Store)(nil)

// addSubscriptionScript inserts the subscription only if the (address,
// service) field is absent, then records the reverse index. Running both
// writes in one script keeps the pair consistent.
//
// KEYS[1] subscribers hash, KEYS[2] address set
// ARGV[1] address, ARGV[2] subscription JSON, ARGV[3] service
var addSubscriptionScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`)

// KEYS[1] subscribers hash, KEYS[2] address set
// ARGV[1] address, ARGV[2] service
var removeSubscriptionScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('SREM', KEYS[2], ARGV[2])
return 1
`)

// Add stores a subscription if (address, service) is not subscribed yet
func (s *Store) Add(ctx context.Context, sub domain.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	keys := []string{SubscribersKey(sub.Service), SubscriptionsKey(sub.Address)}
	added, err := addSubscriptionScript.Run(ctx, s.client, keys, sub.Address, data, sub.Service).Int()
	if err != nil {
		return &domain.StoreError{Op: "add subscription", Err: err}
	}
	if added == 0 {
		return fmt.Errorf("%w: %s -> %s", domain.ErrAlreadySubscribed, sub.Address, sub.Service)
	}
	return nil
}

// Remove deletes the subscription for (address, service)
func (s *Store) Remove(ctx context.Context, address, service string) error {
	keys := []string{SubscribersKey(service), SubscriptionsKey(address)}
	removed, err := removeSubscriptionScript.Run(ctx, s.client, keys, address, service).Int()
	if err != nil {
		return &domain.StoreError{Op: "remove subscription", Err: err}
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s -> %s", domain.ErrNotSubscribed, address, service)
	}
	return nil
}

// Find returns the subscription for (address, service), or nil if absent
func (s *Store) Find(ctx context.Context, address, service string) (*domain.Subscription, error) {
	data, err := s.client.HGet(ctx, SubscribersKey(service), address).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &domain.StoreError{Op: "find subscription", Err: err}
	}

	var sub domain.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscribers returns every address subscribed to service
func (s *Store) ListSubscribers(ctx context.Context, service string) ([]string, error) {
	addresses, err := s.client.HKeys(ctx, SubscribersKey(service)).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "list subscribers", Err: err}
	}
	return addresses, nil
}

// ListByAddress returns every subscription held by address, sorted by service
func (s *Store) ListByAddress(ctx context.Context, address string) ([]domain.Subscription, error) {
	services, err := s.client.SMembers(ctx, SubscriptionsKey(address)).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "list subscriptions", Err: err}
	}
	sort.Strings(services)

	subs := make([]domain.Subscription, 0, len(services))
	for _, service := range services {
		sub, err := s.Find(ctx, address, service)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}
