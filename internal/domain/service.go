package domain

import "time"

// Service is a monitored entity with a history of status events.
//
// A Service is uniquely identified by its Name, which is also used as the
// external key in every store. Services are never deleted in-core; they
// only change by having events appended to them.
type Service struct {
	// Name is the unique identifier.
	Name string `json:"name"`

	// Description is free text shown by the `service` command.
	Description string `json:"description"`

	// CreatedAt is the first time the service was registered.
	CreatedAt time.Time `json:"created_at"`
}

// Status is a named state shared across services (up, down, degraded...).
// Events reference a Status by name, they never own it.
type Status struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Event is one status transition of a Service. Events are immutable.
//
// For a given service, events are totally ordered by Start and the
// current status is the Status of the event with the latest Start.
type Event struct {
	ID      string    `json:"id"`
	Service string    `json:"service"`
	Start   time.Time `json:"start"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// EventTimeLayout is how event start times are rendered in chat replies.
const EventTimeLayout = "2006-01-02 15:04:05"

// Subscription links an address to a service for notification fan-out.
//
// It holds the service by name only: the subscription store never owns
// the service it points at.
type Subscription struct {
	// Transport is the tag of the transport the subscription came from
	// (nats, http, cli).
	Transport string    `json:"transport"`
	Address   string    `json:"address"`
	Service   string    `json:"service"`
	CreatedAt time.Time `json:"created_at"`
}
