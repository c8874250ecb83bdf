package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/registry"
)

// Dispatch is the part of the Dispatcher the updater needs.
type Dispatch interface {
	Dispatch(c Change)
}

// Updater records events and triggers notifications when a service
// changes state.
type Updater struct {
	registry   registry.Registry
	dispatcher Dispatch
	logger     logger.Logger
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*serviceLock
}

type serviceLock struct {
	sync.Mutex
	refs int
}

func NewUpdater(reg registry.Registry, d Dispatch, log logger.Logger) *Updater {
	return &Updater{
		registry:   reg,
		dispatcher: d,
		logger:     log,
		now:        time.Now,
		locks:      make(map[string]*serviceLock),
	}
}

// lock serializes Record per service and returns the unlock func. Entries
// are dropped once nobody holds or waits on them.
func (u *Updater) lock(service string) func() {
	u.mu.Lock()
	l, ok := u.locks[service]
	if !ok {
		l = &serviceLock{}
		u.locks[service] = l
	}
	l.refs++
	u.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		u.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(u.locks, service)
		}
		u.mu.Unlock()
	}
}

// Record appends an event to service. A zero start means now. The event is
// committed before any notification is scheduled; subscribers are only
// notified when the current status name actually changes. A service's first
// event is not a change and notifies nobody.
//
// Records for one service are serialized within this process so that
// concurrent writers agree on the previous status.
func (u *Updater) Record(ctx context.Context, serviceName, statusName, message string, start time.Time) (*domain.Event, error) {
	svc, err := u.registry.GetService(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	newStatus, err := u.registry.GetStatus(ctx, statusName)
	if err != nil {
		return nil, err
	}

	unlock := u.lock(svc.Name)
	defer unlock()

	previous, err := u.registry.CurrentEvent(ctx, svc.Name)
	if err != nil {
		return nil, err
	}

	if start.IsZero() {
		start = u.now()
	}
	ev := &domain.Event{
		ID:      uuid.NewString(),
		Service: svc.Name,
		Start:   start.UTC(),
		Status:  newStatus.Name,
		Message: message,
	}
	if err := u.registry.AppendEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("append event to %s: %w", svc.Name, err)
	}

	current, err := u.registry.CurrentEvent(ctx, svc.Name)
	if err != nil {
		return ev, err
	}
	// A backdated event does not change the current status.
	if current == nil || current.ID != ev.ID {
		return ev, nil
	}
	if previous == nil {
		u.logger.Debug("first event for service",
			logger.String("service", svc.Name),
			logger.String("status", ev.Status))
		return ev, nil
	}
	if previous.Status == ev.Status {
		return ev, nil
	}

	change := Change{Service: svc, NewEvent: ev, NewStatus: newStatus}
	old, err := u.registry.GetStatus(ctx, previous.Status)
	switch {
	case err == nil:
		change.OldStatus = old
	case errors.Is(err, domain.ErrStatusNotFound):
		change.OldStatus = &domain.Status{Name: previous.Status}
	default:
		u.logger.Warn("previous status lookup failed",
			logger.String("service", svc.Name),
			logger.Error(err))
	}

	u.logger.Info("service changed state",
		logger.String("service", svc.Name),
		logger.String("status", ev.Status),
		logger.String("event_id", ev.ID))
	u.dispatcher.Dispatch(change)
	return ev, nil
}
