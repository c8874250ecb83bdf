package subscription

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jamezpolley/stashboard/internal/domain"
)

type key struct {
	address string
	service string
}

// Memory is an in-process Store. A single mutex covers the whole
// collection, which makes every check-and-mutate step atomic.
type Memory struct {
	mu   sync.RWMutex
	subs map[key]domain.Subscription
}

// NewMemory creates an empty subscription store.
func NewMemory() *Memory {
	return &Memory{subs: make(map[key]domain.Subscription)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Add(_ context.Context, sub domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{address: sub.Address, service: sub.Service}
	if _, ok := m.subs[k]; ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrAlreadySubscribed, sub.Address, sub.Service)
	}
	m.subs[k] = sub
	return nil
}

func (m *Memory) Remove(_ context.Context, address, service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{address: address, service: service}
	if _, ok := m.subs[k]; !ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrNotSubscribed, address, service)
	}
	delete(m.subs, k)
	return nil
}

func (m *Memory) Find(_ context.Context, address, service string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[key{address: address, service: service}]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *Memory) ListSubscribers(_ context.Context, service string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var addresses []string
	for k := range m.subs {
		if k.service == service {
			addresses = append(addresses, k.address)
		}
	}
	return addresses, nil
}

func (m *Memory) ListByAddress(_ context.Context, address string) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var subs []domain.Subscription
	for k, sub := range m.subs {
		if k.address == address {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Service < subs[j].Service })
	return subs, nil
}

// Count returns the number of subscriptions held.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subs)
}
