package natsx

import (
	"context"
	"fmt"

	"github.com/jamezpolley/stashboard/internal/wire"
)

// Publisher delivers notifications as envelopes on the notifications subject.
type Publisher struct {
	conn     Conn
	subjects Subjects
	identity string
}

func NewPublisher(conn Conn, subjects Subjects, identity string) *Publisher {
	return &Publisher{conn: conn, subjects: subjects, identity: identity}
}

func (p *Publisher) Name() string { return transportName }

func (p *Publisher) Deliver(ctx context.Context, address, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := wire.Encode(wire.New(wire.KindNotification, p.identity, address, message))
	if err != nil {
		return err
	}

	headers := map[string]string{"Stashboard-To": address}
	if err := p.conn.Publish(p.subjects.Notifications(), data, headers); err != nil {
		return fmt.Errorf("nats publish notification: %w", err)
	}
	return nil
}
