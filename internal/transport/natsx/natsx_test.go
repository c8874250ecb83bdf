package natsx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/wire"
)

type published struct {
	subject string
	data    []byte
	headers map[string]string
}

type fakeConn struct {
	mu      sync.Mutex
	calls   []published
	handler nats.MsgHandler
	drained bool
	err     error

	// backlog is delivered from another goroutine once draining starts,
	// the way the client flushes messages buffered before the unsubscribe.
	backlog []*nats.Msg
}

func (f *fakeConn) Publish(subject string, data []byte, headers map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, published{subject, data, headers})
	return f.err
}

func (f *fakeConn) QueueSubscribe(_, _ string, h nats.MsgHandler) (func() error, error) {
	f.handler = h
	return func() error {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for _, m := range f.backlog {
				h(m)
			}
		}()
		<-done
		f.drained = true
		return nil
	}, nil
}

func (f *fakeConn) published() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.calls...)
}

type echoHandler struct {
	mu        sync.Mutex
	transport string
}

func (h *echoHandler) Handle(_ context.Context, transport, sender, body string) domain.Reply {
	h.mu.Lock()
	h.transport = transport
	h.mu.Unlock()
	return domain.Reply{To: sender, Body: strings.ToUpper(body)}
}

var subjects = Subjects{Prefix: "stashboard"}

func command(t *testing.T, from, body string) []byte {
	t.Helper()
	data, err := wire.Encode(wire.New(wire.KindCommand, from, "stashboard", body))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func startServer(t *testing.T, fc *fakeConn, h Handler) *Server {
	t.Helper()
	s := NewServer(fc, h, logger.NewNop(), ServerOptions{Subjects: subjects, Queue: "q", Identity: "stashboard"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func TestServerRepliesOnReplySubject(t *testing.T) {
	fc := &fakeConn{}
	h := &echoHandler{}
	s := startServer(t, fc, h)

	fc.handler(&nats.Msg{Subject: subjects.Commands(), Reply: "_INBOX.1", Data: command(t, "alice@x/phone", "services")})
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	calls := fc.published()
	if len(calls) != 1 {
		t.Fatalf("published %d messages, want 1", len(calls))
	}
	if calls[0].subject != "_INBOX.1" {
		t.Errorf("reply subject = %q", calls[0].subject)
	}
	out, err := wire.Decode(calls[0].data)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if out.To != "alice@x/phone" || out.Body != "SERVICES" || out.Kind != wire.KindReply {
		t.Errorf("reply = %+v", out)
	}
	if h.transport != "nats" {
		t.Errorf("transport tag = %q, want nats", h.transport)
	}
	if !fc.drained {
		t.Error("Stop() did not drain the subscription")
	}
}

func TestServerRepliesOnDefaultSubject(t *testing.T) {
	fc := &fakeConn{}
	s := startServer(t, fc, &echoHandler{})

	fc.handler(&nats.Msg{Subject: subjects.Commands(), Data: command(t, "bob@x", "help")})
	_ = s.Stop()

	calls := fc.published()
	if len(calls) != 1 || calls[0].subject != "stashboard.replies" {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].headers["Stashboard-To"] != "bob@x" {
		t.Errorf("headers = %v", calls[0].headers)
	}
}

func TestServerDropsGarbage(t *testing.T) {
	fc := &fakeConn{}
	s := startServer(t, fc, &echoHandler{})

	fc.handler(&nats.Msg{Subject: subjects.Commands(), Data: []byte("not msgpack")})
	_ = s.Stop()

	if n := len(fc.published()); n != 0 {
		t.Errorf("published %d replies for garbage input", n)
	}
}

type slowHandler struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (h *slowHandler) Handle(_ context.Context, _, sender, _ string) domain.Reply {
	h.mu.Lock()
	h.active++
	if h.active > h.maxSeen {
		h.maxSeen = h.active
	}
	h.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	h.mu.Lock()
	h.active--
	h.mu.Unlock()
	return domain.Reply{To: sender}
}

func TestServerBoundsConcurrency(t *testing.T) {
	fc := &fakeConn{}
	h := &slowHandler{}
	s := NewServer(fc, h, logger.NewNop(), ServerOptions{Subjects: subjects, Concurrency: 3})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		fc.handler(&nats.Msg{Data: command(t, "a@x", "services")})
	}
	_ = s.Stop()

	if h.maxSeen > 3 {
		t.Errorf("max concurrent commands = %d, want <= 3", h.maxSeen)
	}
	if n := len(fc.published()); n != 20 {
		t.Errorf("published %d replies, want 20", n)
	}
}

func TestServerFinishesBacklogAfterCancel(t *testing.T) {
	fc := &fakeConn{}
	for i := 0; i < 10; i++ {
		fc.backlog = append(fc.backlog, &nats.Msg{Data: command(t, "a@x", "services")})
	}
	h := &slowHandler{}
	s := NewServer(fc, h, logger.NewNop(), ServerOptions{Subjects: subjects, Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n := len(fc.published()); n != 10 {
		t.Errorf("published %d replies after shutdown, want 10", n)
	}
}

func TestWaitDrained(t *testing.T) {
	t.Run("returns once invalid", func(t *testing.T) {
		polls := 0
		valid := func() bool {
			polls++
			return polls < 3
		}
		if err := waitDrained(valid, time.Second); err != nil {
			t.Fatalf("waitDrained() error = %v", err)
		}
		if polls != 3 {
			t.Errorf("polled %d times, want 3", polls)
		}
	})

	t.Run("times out", func(t *testing.T) {
		err := waitDrained(func() bool { return true }, 30*time.Millisecond)
		if !errors.Is(err, errDrainTimeout) {
			t.Errorf("waitDrained() error = %v, want %v", err, errDrainTimeout)
		}
	})
}

func TestPublisherDeliver(t *testing.T) {
	fc := &fakeConn{}
	p := NewPublisher(fc, subjects, "stashboard")

	if err := p.Deliver(context.Background(), "alice@x", "db changed state from up to down"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	calls := fc.published()
	if len(calls) != 1 || calls[0].subject != "stashboard.notifications" {
		t.Fatalf("calls = %+v", calls)
	}
	env, err := wire.Decode(calls[0].data)
	if err != nil {
		t.Fatal(err)
	}
	if env.To != "alice@x" || env.Kind != wire.KindNotification {
		t.Errorf("envelope = %+v", env)
	}
}

func TestPublisherDeliverError(t *testing.T) {
	fc := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(fc, subjects, "stashboard")
	if err := p.Deliver(context.Background(), "alice@x", "x"); err == nil {
		t.Error("Deliver() should surface publish errors")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewPublisher(&fakeConn{}, subjects, "s").Deliver(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("Deliver() with cancelled ctx = %v", err)
	}
}
