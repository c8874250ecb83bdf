// Package notify fans status-change notifications out to subscribers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/subscription"
)

const (
	// DefaultConcurrency bounds parallel deliveries for one change.
	DefaultConcurrency = 8
	// DefaultDeliveryTimeout bounds a single delivery attempt.
	DefaultDeliveryTimeout = 5 * time.Second

	unknownStatus = "unknown"
)

// Transport delivers one message to one address.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, address, message string) error
}

// Change describes a committed status transition of a service.
// Any of OldStatus, NewEvent and NewStatus may be nil.
type Change struct {
	Service   *domain.Service
	OldStatus *domain.Status
	NewEvent  *domain.Event
	NewStatus *domain.Status
}

// Result is the outcome of one delivery. Err is nil when delivered.
type Result struct {
	Address  string        `json:"address"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Delivered reports whether the message reached the transport.
func (r Result) Delivered() bool { return r.Err == nil }

// Report collects the per-recipient results of a fan-out.
type Report struct {
	Service string
	Message string
	Results []Result
}

// Failed returns the number of recipients that did not get the message.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Delivered() {
			n++
		}
	}
	return n
}

// Options tunes a Dispatcher.
type Options struct {
	Concurrency     int
	DeliveryTimeout time.Duration
}

// Dispatcher resolves subscribers and delivers change messages to each
// of them independently.
type Dispatcher struct {
	subs      subscription.Store
	transport Transport
	logger    logger.Logger
	opts      Options

	// Background fan-outs derive from baseCtx so shutdown can cancel them.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
}

// NewDispatcher creates a dispatcher. Zero options fall back to defaults.
func NewDispatcher(subs subscription.Store, transport Transport, log logger.Logger, opts Options) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = DefaultDeliveryTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		subs:      subs,
		transport: transport,
		logger:    log,
		opts:      opts,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Message builds the human readable notification for a change, logging
// and substituting whatever status data is missing.
func (d *Dispatcher) Message(c Change) string {
	serviceName := unknownStatus
	if c.Service != nil {
		serviceName = c.Service.Name
	} else {
		d.logger.Warn("notification without service")
	}

	oldName := unknownStatus
	if c.OldStatus != nil {
		oldName = c.OldStatus.Name
	} else {
		d.logger.Warn("notification without previous status",
			logger.String("service", serviceName))
	}

	newName := unknownStatus
	switch {
	case c.NewStatus != nil:
		newName = c.NewStatus.Name
	case c.NewEvent != nil && c.NewEvent.Status != "":
		d.logger.Warn("current status could not be resolved, using event status name",
			logger.String("service", serviceName),
			logger.String("status", c.NewEvent.Status))
		newName = c.NewEvent.Status
	default:
		d.logger.Warn("notification without current status",
			logger.String("service", serviceName))
	}

	return fmt.Sprintf("%s changed state from %s to %s", serviceName, oldName, newName)
}

// Notify delivers the change message to every subscriber of the service
// and waits for all deliveries. A failing subscriber never stops the others.
func (d *Dispatcher) Notify(ctx context.Context, c Change) (Report, error) {
	msg := d.Message(c)
	report := Report{Message: msg}
	if c.Service == nil {
		return report, errors.New("notify: change has no service")
	}
	report.Service = c.Service.Name

	addresses, err := d.subs.ListSubscribers(ctx, c.Service.Name)
	if err != nil {
		return report, fmt.Errorf("list subscribers of %s: %w", c.Service.Name, err)
	}

	report.Results = d.fanOut(ctx, addresses, msg)

	d.logger.Info("notification fan-out completed",
		logger.String("service", c.Service.Name),
		logger.String("transport", d.transport.Name()),
		logger.Int("recipients", len(addresses)),
		logger.Int("failed", report.Failed()))

	return report, nil
}

// NotifyAddress delivers one message to one address.
func (d *Dispatcher) NotifyAddress(ctx context.Context, address, message string) Result {
	res := d.deliver(ctx, address, message)
	if res.Delivered() {
		d.logger.Info("notified",
			logger.String("address", address),
			logger.String("message", message))
	}
	return res
}

// Dispatch runs Notify in the background so the caller is never blocked
// by slow subscribers. Close waits for outstanding dispatches; changes
// dispatched after Close are dropped.
func (d *Dispatcher) Dispatch(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping change",
			logger.String("service", c.Service.Name),
			logger.String("status", c.NewStatus.Name))
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.Notify(d.baseCtx, c); err != nil {
			d.logger.Error("notification fan-out failed", logger.Error(err))
		}
	}()
}

// Close cancels outstanding background dispatches once ctx expires and
// waits for them to return.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) fanOut(ctx context.Context, addresses []string, msg string) []Result {
	results := make([]Result, len(addresses))
	sem := make(chan struct{}, d.opts.Concurrency)
	var wg sync.WaitGroup

	for i, address := range addresses {
		wg.Add(1)
		go func(i int, address string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Address: address, Err: &domain.DeliveryError{Address: address, Err: ctx.Err()}}
				return
			}
			results[i] = d.deliver(ctx, address, msg)
		}(i, address)
	}

	wg.Wait()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, address, msg string) Result {
	ctx, cancel := context.WithTimeout(ctx, d.opts.DeliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.transport.Deliver(ctx, address, msg)
	res := Result{Address: address, Duration: time.Since(start)}
	if err != nil {
		res.Err = &domain.DeliveryError{Address: address, Err: err}
		d.logger.Warn("notification delivery failed",
			logger.String("address", address),
			logger.String("transport", d.transport.Name()),
			logger.Duration("duration", res.Duration),
			logger.Error(err))
	}
	return res
}
