package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceNotFound is returned when no service has the requested name.
	ErrServiceNotFound = errors.New("service not found")
	// ErrServiceExists is returned when adding a service whose name is taken.
	ErrServiceExists = errors.New("service already exists")
	// ErrStatusNotFound is returned when no status has the requested name.
	ErrStatusNotFound = errors.New("status not found")
	// ErrAlreadySubscribed is returned when (address, service) is already subscribed.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrNotSubscribed is returned when removing a subscription that does not exist.
	ErrNotSubscribed = errors.New("not subscribed")
	// ErrEmptyMessage is returned by the parser for a message without a verb.
	ErrEmptyMessage = errors.New("empty message")
)

// ParseError reports a message body that could not be turned into a command.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Body, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArgumentError reports a recognised verb whose arguments are missing or malformed.
type ArgumentError struct {
	Verb  string
	Usage string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("bad arguments for %s, usage: %s", e.Verb, e.Usage)
}

// DeliveryError reports a notification that could not be delivered to one address.
type DeliveryError struct {
	Address string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Address, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StoreError reports a backing store failure (registry or subscriptions).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
