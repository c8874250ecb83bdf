// Package command executes parsed chat commands against the service
// registry and the subscription store.
//
// The executor never returns an error: every inbound message gets exactly
// one Reply, including malformed messages and backend failures.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/registry"
	"github.com/jamezpolley/stashboard/internal/subscription"
)

// RecentEventLimit is how many events the `service` command shows.
const RecentEventLimit = 3

const (
	replyNotUnderstood = "Sorry, I didn't understand that message. Try: help"
	replyInternalError = "Internal error, please try again later."
)

// Executor turns Commands into Replies.
type Executor struct {
	registry registry.Registry
	subs     subscription.Store
	logger   logger.Logger
	now      func() time.Time
}

// NewExecutor creates an executor backed by reg and subs.
func NewExecutor(reg registry.Registry, subs subscription.Store, log logger.Logger) *Executor {
	return &Executor{
		registry: reg,
		subs:     subs,
		logger:   log,
		now:      time.Now,
	}
}

// Handle parses body and executes it. transport tags any subscription
// created by the message.
func (e *Executor) Handle(ctx context.Context, transport, sender, body string) domain.Reply {
	cmd, err := domain.ParseCommand(sender, body)
	if err != nil {
		e.logger.Debug("unparseable message",
			logger.String("sender", sender),
			logger.String("transport", transport),
			logger.Error(err))
		return domain.Reply{To: sender, Body: replyNotUnderstood}
	}
	cmd.Transport = transport
	return e.Execute(ctx, cmd)
}

// Execute runs cmd and always produces a reply addressed to its sender.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command) domain.Reply {
	body, err := e.dispatch(ctx, cmd)
	if err != nil {
		body = e.describe(cmd, err)
	}

	e.logger.Debug("command executed",
		logger.String("verb", cmd.Verb),
		logger.String("sender", cmd.Sender),
		logger.String("transport", cmd.Transport),
		logger.Bool("failed", err != nil))

	return domain.Reply{To: cmd.Sender, Body: body}
}

func (e *Executor) dispatch(ctx context.Context, cmd domain.Command) (string, error) {
	switch cmd.Kind {
	case domain.KindService:
		return e.service(ctx, cmd)
	case domain.KindServices:
		return e.services(ctx)
	case domain.KindAddService:
		return e.addService(ctx, cmd)
	case domain.KindSub:
		return e.subscribe(ctx, cmd)
	case domain.KindUnsub:
		return e.unsubscribe(ctx, cmd)
	case domain.KindHelp:
		return help(), nil
	case domain.KindUnknown:
		return fmt.Sprintf("Sorry, I don't understand %q. Try: help", cmd.Verb), nil
	default:
		return "", fmt.Errorf("unhandled command kind %d", cmd.Kind)
	}
}

// describe maps a failed command to the reply the user sees. Expected
// conditions get a specific message; anything else is an internal error.
func (e *Executor) describe(cmd domain.Command, err error) string {
	var argErr *domain.ArgumentError
	if errors.As(err, &argErr) {
		return "Usage: " + argErr.Usage
	}

	e.logger.Error("command failed",
		logger.String("verb", cmd.Verb),
		logger.String("args", cmd.Args),
		logger.String("sender", cmd.Sender),
		logger.Error(err))
	return replyInternalError
}

// serviceName extracts the rest-of-body service name used by service, sub and unsub.
func serviceName(cmd domain.Command) (string, error) {
	name := strings.TrimSpace(cmd.Args)
	if name == "" {
		return "", &domain.ArgumentError{Verb: cmd.Verb, Usage: cmd.Verb + " <service name>"}
	}
	return name, nil
}

func (e *Executor) service(ctx context.Context, cmd domain.Command) (string, error) {
	name, err := serviceName(cmd)
	if err != nil {
		return "", err
	}

	svc, err := e.registry.GetService(ctx, name)
	if errors.Is(err, domain.ErrServiceNotFound) {
		return "Cannot find service with name: " + name, nil
	}
	if err != nil {
		return "", err
	}

	events, err := e.registry.RecentEvents(ctx, svc.Name, RecentEventLimit)
	if err != nil {
		return "", err
	}

	lines := []string{
		"Name: " + svc.Name,
		"Description: " + svc.Description,
		"Recent events:",
	}
	for _, ev := range events {
		lines = append(lines, FormatEvent(ev))
	}
	return strings.Join(lines, "\n"), nil
}

// FormatEvent renders an event as "start: status: message".
func FormatEvent(ev *domain.Event) string {
	return fmt.Sprintf("%s: %s: %s", ev.Start.Format(domain.EventTimeLayout), ev.Status, ev.Message)
}

func (e *Executor) services(ctx context.Context) (string, error) {
	services, err := e.registry.AllServices(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(services))
	for _, svc := range services {
		ev, err := e.registry.CurrentEvent(ctx, svc.Name)
		if err != nil {
			return "", err
		}
		if ev == nil {
			lines = append(lines, svc.Name+" has no events")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s: %s", svc.Name, ev.Status, ev.Message))
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Executor) addService(ctx context.Context, cmd domain.Command) (string, error) {
	// addservice takes only the first word; anything after it is ignored.
	fields := strings.Fields(cmd.Args)
	if len(fields) == 0 {
		return "", &domain.ArgumentError{Verb: cmd.Verb, Usage: cmd.Verb + " <service name>"}
	}
	name := fields[0]

	err := e.registry.AddService(ctx, &domain.Service{Name: name, CreatedAt: e.now()})
	if errors.Is(err, domain.ErrServiceExists) {
		return fmt.Sprintf("Service %s already exists", name), nil
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("service added",
		logger.String("service", name),
		logger.String("sender", cmd.Sender))
	return "Added service " + name, nil
}

func (e *Executor) subscribe(ctx context.Context, cmd domain.Command) (string, error) {
	name, err := serviceName(cmd)
	if err != nil {
		return "", err
	}
	address := domain.NormalizeAddress(cmd.Sender)

	svc, err := e.registry.GetService(ctx, name)
	if errors.Is(err, domain.ErrServiceNotFound) {
		return "Sorry, I couldn't find a service called " + name, nil
	}
	if err != nil {
		return "", err
	}

	err = e.subs.Add(ctx, domain.Subscription{
		Transport: cmd.Transport,
		Address:   address,
		Service:   svc.Name,
		CreatedAt: e.now(),
	})
	if errors.Is(err, domain.ErrAlreadySubscribed) {
		return fmt.Sprintf("user %s is already subscribed to service %s", address, svc.Name), nil
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("subscribed",
		logger.String("address", address),
		logger.String("service", svc.Name))
	return fmt.Sprintf("Subscribed %s to service %s", address, svc.Name), nil
}

func (e *Executor) unsubscribe(ctx context.Context, cmd domain.Command) (string, error) {
	name, err := serviceName(cmd)
	if err != nil {
		return "", err
	}
	address := domain.NormalizeAddress(cmd.Sender)

	svc, err := e.registry.GetService(ctx, name)
	if errors.Is(err, domain.ErrServiceNotFound) {
		return "Sorry, I couldn't find a service called " + name, nil
	}
	if err != nil {
		return "", err
	}

	err = e.subs.Remove(ctx, address, svc.Name)
	if errors.Is(err, domain.ErrNotSubscribed) {
		return fmt.Sprintf("user %s is not subscribed to service %s", address, svc.Name), nil
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("unsubscribed",
		logger.String("address", address),
		logger.String("service", svc.Name))
	return fmt.Sprintf("Unsubscribed %s from service %s", address, svc.Name), nil
}

func help() string {
	return strings.Join([]string{
		"Commands:",
		"service <name> - show a service and its recent events",
		"services - list every service and its current status",
		"addservice <name> - register a new service",
		"sub <name> - get notified when a service changes state",
		"unsub <name> - stop notifications for a service",
	}, "\n")
}
