package subscription

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jamezpolley/stashboard/internal/domain"
)

func sub(address, service string) domain.Subscription {
	return domain.Subscription{Transport: "nats", Address: address, Service: service}
}

func TestAddThenDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Add(ctx, sub("alice@example.com", "db")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	err := store.Add(ctx, sub("alice@example.com", "db"))
	if !errors.Is(err, domain.ErrAlreadySubscribed) {
		t.Fatalf("Add() duplicate error = %v, want ErrAlreadySubscribed", err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.Add(ctx, sub("alice@example.com", "db"))

	if err := store.Remove(ctx, "alice@example.com", "db"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	err := store.Remove(ctx, "alice@example.com", "db")
	if !errors.Is(err, domain.ErrNotSubscribed) {
		t.Errorf("Remove() twice error = %v, want ErrNotSubscribed", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d, want 0", store.Count())
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.Add(ctx, sub("alice@example.com", "db"))

	found, err := store.Find(ctx, "alice@example.com", "db")
	if err != nil || found == nil {
		t.Fatalf("Find() = %v, %v, want subscription", found, err)
	}
	if found.Transport != "nats" {
		t.Errorf("Find().Transport = %q, want nats", found.Transport)
	}

	missing, err := store.Find(ctx, "alice@example.com", "web")
	if err != nil || missing != nil {
		t.Errorf("Find() missing = %v, %v, want nil, nil", missing, err)
	}
}

func TestListSubscribersAndByAddress(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.Add(ctx, sub("alice@example.com", "db"))
	_ = store.Add(ctx, sub("bob@example.com", "db"))
	_ = store.Add(ctx, sub("alice@example.com", "web"))

	addrs, _ := store.ListSubscribers(ctx, "db")
	if len(addrs) != 2 {
		t.Errorf("ListSubscribers(db) = %v, want 2 addresses", addrs)
	}

	subs, _ := store.ListByAddress(ctx, "alice@example.com")
	if len(subs) != 2 || subs[0].Service != "db" || subs[1].Service != "web" {
		t.Errorf("ListByAddress() = %+v, want [db web]", subs)
	}
}

func TestConcurrentDuplicateAdds(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Add(ctx, sub("alice@example.com", "db")); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("%d concurrent adds succeeded, want exactly 1", succeeded.Load())
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}
