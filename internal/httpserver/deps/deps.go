package deps

import (
	"context"
	"time"

	"github.com/jamezpolley/stashboard/internal/command"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/notify"
	"github.com/jamezpolley/stashboard/internal/registry"
	"github.com/jamezpolley/stashboard/internal/subscription"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedCIDRS []string // IPs allowed to access the API and probes
	TrustProxy   bool     // true if running behind a trusted reverse proxy
	APIToken     string   // shared secret for mutating routes, empty = disabled

	Registry      registry.Registry
	Subscriptions subscription.Store
	Executor      *command.Executor
	Dispatcher    *notify.Dispatcher
	Updater       *notify.Updater

	StoreName     string        // "memory" | "redis"
	StorePinger   Pinger        // nil for the in-memory store
	TransportName string        // outbound notification transport
	ReloadTrigger chan struct{} // manual seed reload, nil when no seed file is configured
}

func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
