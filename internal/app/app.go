package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamezpolley/stashboard/internal/command"
	"github.com/jamezpolley/stashboard/internal/config"
	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/httpserver"
	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/notify"
	"github.com/jamezpolley/stashboard/internal/scheduler"
	"github.com/jamezpolley/stashboard/internal/sources/seed"
	"github.com/jamezpolley/stashboard/internal/transport/natsx"
	"github.com/jamezpolley/stashboard/internal/utils"
	"github.com/jamezpolley/stashboard/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	commands   *natsx.Server // nil without NATS
	reloader   *scheduler.SeedReloader
	dispatcher *notify.Dispatcher
	closers    utils.Closers
}

// New opens the configured store and transports and wires the command
// executor, the notification dispatcher and the HTTP server. Connections
// opened before a failure are closed before returning.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	st, err := openStore(cfg, log, &a.closers)
	if err != nil {
		return nil, a.abort(fmt.Errorf("open store: %w", err))
	}

	var nc natsx.Conn
	if cfg.NATSURL != "" {
		if nc, err = connectNATS(cfg, log, &a.closers); err != nil {
			return nil, a.abort(err)
		}
	}

	transport, err := openTransport(cfg, log, nc, &a.closers)
	if err != nil {
		return nil, a.abort(fmt.Errorf("open %s transport: %w", cfg.NotifyTransport, err))
	}
	log.Info("notification transport ready", logger.String("transport", transport.Name()))

	a.dispatcher = notify.NewDispatcher(st.subs, transport, log, notify.Options{
		Concurrency:     cfg.DeliveryConcurrency,
		DeliveryTimeout: cfg.DeliveryTimeout,
	})
	updater := notify.NewUpdater(st.registry, a.dispatcher, log)
	executor := command.NewExecutor(st.registry, st.subs, log)

	if nc != nil {
		a.commands = natsx.NewServer(nc, executor, log, natsx.ServerOptions{
			Subjects:    natsx.Subjects{Prefix: cfg.NATSSubjectPrefix},
			Queue:       cfg.NATSQueue,
			Identity:    cfg.Identity,
			Concurrency: cfg.CommandConcurrency,
		})
	}

	var reloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		reloadTrigger = make(chan struct{}, 1)
		seeder := seed.NewSeeder(seed.NewLoader(cfg.SeedFile), st.registry, log)
		a.reloader = scheduler.NewSeedReloader(seeder, log, cfg.ReloadInterval, reloadTrigger)
	} else {
		log.Info("seed file not configured, services come from addservice only")
	}

	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		APIToken:      cfg.APIToken,
		Registry:      st.registry,
		Subscriptions: st.subs,
		Executor:      executor,
		Dispatcher:    a.dispatcher,
		Updater:       updater,
		StoreName:     cfg.Store,
		StorePinger:   st.pinger,
		TransportName: transport.Name(),
		ReloadTrigger: reloadTrigger,
	}
	a.server = httpserver.New(cfg, log, d)

	return a, nil
}

func (a *App) abort(err error) error {
	a.closers.Close(a.logger)
	return err
}

// Run starts every component and blocks until SIGINT/SIGTERM or a server
// failure, then shuts down in reverse order.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Stashboard v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Stashboard %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closers.Close(a.logger)

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.String("file", a.cfg.SeedFile),
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if a.commands != nil {
		if err := a.commands.Start(ctx); err != nil {
			return fmt.Errorf("failed to start nats command server: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("server failed, shutting down", logger.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}
	if a.commands != nil {
		if err := a.commands.Stop(); err != nil {
			a.logger.Warn("failed to drain nats command subscription", logger.Error(err))
		}
	}
	if a.reloader != nil {
		a.reloader.Stop()
	}
	if err := a.dispatcher.Close(shutdownCtx); err != nil {
		a.logger.Warn("pending notifications abandoned", logger.Error(err))
	}

	if runErr == nil {
		a.logger.Info("✅ Stashboard stopped cleanly")
	}
	return runErr
}

// Exec runs one chat command against the configured store without
// starting any server, applying the seed file first when one is set.
func Exec(ctx context.Context, cfg *config.Config, log logger.Logger, from, body string) (domain.Reply, error) {
	var closers utils.Closers
	defer closers.Close(log)

	st, err := openStore(cfg, log, &closers)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("open store: %w", err)
	}
	if cfg.SeedFile != "" {
		if _, err := seed.NewSeeder(seed.NewLoader(cfg.SeedFile), st.registry, log).Seed(ctx); err != nil {
			return domain.Reply{}, err
		}
	}

	return command.NewExecutor(st.registry, st.subs, log).Handle(ctx, "cli", from, body), nil
}
