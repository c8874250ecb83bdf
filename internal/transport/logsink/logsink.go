// Package logsink delivers notifications to the application log. It is the
// default transport when no broker is configured.
package logsink

import (
	"context"

	"github.com/jamezpolley/stashboard/internal/logger"
)

type Transport struct {
	logger logger.Logger
}

func New(log logger.Logger) *Transport {
	return &Transport{logger: log.With(logger.String("transport", "log"))}
}

func (t *Transport) Name() string { return "log" }

func (t *Transport) Deliver(ctx context.Context, address, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info("notification",
		logger.String("to", address),
		logger.String("message", message))
	return nil
}
