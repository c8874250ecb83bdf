package natsx

import (
	"context"
	"errors"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/wire"
)

const transportName = "nats"

// DefaultConcurrency bounds the commands handled at once.
const DefaultConcurrency = 16

// Handler executes one chat message and returns the reply.
type Handler interface {
	Handle(ctx context.Context, transport, sender, body string) domain.Reply
}

type ServerOptions struct {
	Subjects    Subjects
	Queue       string
	Identity    string // sender of replies
	Concurrency int
}

// Server consumes command envelopes and publishes one reply per command.
type Server struct {
	conn    Conn
	handler Handler
	logger  logger.Logger
	opts    ServerOptions

	sem   chan struct{}
	wg    sync.WaitGroup
	ctx   context.Context
	drain func() error
}

func NewServer(conn Conn, h Handler, log logger.Logger, opts ServerOptions) *Server {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Server{
		conn:    conn,
		handler: h,
		logger:  log.With(logger.String("transport", transportName)),
		opts:    opts,
		sem:     make(chan struct{}, opts.Concurrency),
	}
}

// Start subscribes to the command subject. Messages are handled until Stop
// is called. Cancelling ctx does not abandon a command already received;
// its values still reach the handler.
func (s *Server) Start(ctx context.Context) error {
	if s.drain != nil {
		return errors.New("nats server already started")
	}
	s.ctx = context.WithoutCancel(ctx)

	drain, err := s.conn.QueueSubscribe(s.opts.Subjects.Commands(), s.opts.Queue, s.onMessage)
	if err != nil {
		return err
	}
	s.drain = drain

	s.logger.Info("listening for commands",
		logger.String("subject", s.opts.Subjects.Commands()),
		logger.String("queue", s.opts.Queue),
		logger.Int("concurrency", s.opts.Concurrency))
	return nil
}

// Stop drains the subscription and waits for in-flight commands. The drain
// returns only after the last onMessage call, so no wg.Add races the Wait.
func (s *Server) Stop() error {
	var err error
	if s.drain != nil {
		err = s.drain()
	}
	s.wg.Wait()
	return err
}

func (s *Server) onMessage(msg *nats.Msg) {
	// Blocking here applies backpressure to the subscription.
	s.sem <- struct{}{}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		s.handle(msg)
	}()
}

func (s *Server) handle(msg *nats.Msg) {
	in, err := wire.Decode(msg.Data)
	if err != nil {
		s.logger.Warn("dropping undecodable command", logger.Error(err))
		return
	}

	reply := s.handler.Handle(s.ctx, transportName, in.From, in.Body)

	out := in.ReplyTo(s.opts.Identity, reply.Body)
	out.To = reply.To
	data, err := wire.Encode(out)
	if err != nil {
		s.logger.Error("encode reply", logger.Error(err))
		return
	}

	subject := msg.Reply
	if subject == "" {
		subject = s.opts.Subjects.Replies()
	}
	headers := map[string]string{"Stashboard-To": out.To}
	if err := s.conn.Publish(subject, data, headers); err != nil {
		s.logger.Error("publish reply",
			logger.String("subject", subject),
			logger.String("to", out.To),
			logger.Error(err))
	}
}
