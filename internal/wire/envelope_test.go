package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeDecode(t *testing.T) {
	in := New(KindCommand, "alice@example.com/phone", "stashboard", "sub db")
	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.ID != in.ID || out.From != in.From || out.Body != in.Body || out.Kind != KindCommand {
		t.Errorf("Decode() = %+v, want %+v", out, in)
	}
	if !out.SentAt.Equal(in.SentAt) {
		t.Errorf("SentAt = %v, want %v", out.SentAt, in.SentAt)
	}
}

func TestNewAssignsUUID(t *testing.T) {
	e := New(KindNotification, "", "bob@example.com", "db changed state from up to down")
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", e.ID, err)
	}
}

func TestReplyTo(t *testing.T) {
	cmd := New(KindCommand, "alice@example.com/phone", "stashboard", "services")
	reply := cmd.ReplyTo("stashboard", "db: up: ok")

	if reply.To != cmd.From {
		t.Errorf("reply.To = %q, want %q", reply.To, cmd.From)
	}
	if reply.InReplyTo != cmd.ID || reply.Kind != KindReply {
		t.Errorf("reply = %+v", reply)
	}
}

func TestDecodeRejects(t *testing.T) {
	noSender, _ := msgpack.Marshal(&Envelope{Body: "services"})

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xc1, 0x00}},
		{"missing sender", noSender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); err == nil {
				t.Error("Decode() should fail")
			}
		})
	}
}
