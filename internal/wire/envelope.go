// Package wire defines the message envelope exchanged with messaging
// transports.
package wire

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Kinds of envelope.
const (
	KindCommand      = "command"
	KindReply        = "reply"
	KindNotification = "notification"
)

// Envelope carries one chat message or notification.
type Envelope struct {
	ID     string    `msgpack:"id" json:"id"`
	Kind   string    `msgpack:"kind" json:"kind"`
	From   string    `msgpack:"from" json:"from"`
	To     string    `msgpack:"to" json:"to"`
	Body   string    `msgpack:"body" json:"body"`
	SentAt time.Time `msgpack:"sent_at" json:"sent_at"`
	// InReplyTo links a reply to the command envelope that caused it.
	InReplyTo string `msgpack:"in_reply_to,omitempty" json:"in_reply_to,omitempty"`
}

// New returns an envelope with a fresh id and the current time.
func New(kind, from, to, body string) Envelope {
	return Envelope{
		ID:     uuid.NewString(),
		Kind:   kind,
		From:   from,
		To:     to,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
}

// ReplyTo builds the reply envelope for a received command.
func (e Envelope) ReplyTo(from, body string) Envelope {
	r := New(KindReply, from, e.From, body)
	r.InReplyTo = e.ID
	return r
}

// Encode marshals the envelope to msgpack.
func Encode(e Envelope) ([]byte, error) {
	raw, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return raw, nil
}

// Decode unmarshals a msgpack envelope. An envelope without a sender is
// rejected since no reply could be addressed.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.From == "" {
		return Envelope{}, errors.New("decode envelope: missing sender")
	}
	return e, nil
}
