package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/mochachat/internal/chatstore"
	"github.com/nfrund/mochachat/internal/config"
	"github.com/nfrund/mochachat/internal/directory"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/metrics"
	"github.com/nfrund/mochachat/internal/persistence"
	"github.com/nfrund/mochachat/internal/pubsub"
	"github.com/nfrund/mochachat/internal/reply"
	"github.com/nfrund/mochachat/internal/script"
	"github.com/nfrund/mochachat/internal/seed"
	"github.com/nfrund/mochachat/internal/typing"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"
)

// options collects the collaborators a caller may substitute, mostly for tests.
type options struct {
	kv        persistence.KV
	bus       pubsub.Bus
	dir       *directory.Directory
	seeder    chatstore.Seeder
	replyOpts []reply.Option
	now       func() time.Time
	newID     func() string
	version   string
}

// Option is a function that configures a Session.
type Option func(*options)

// WithKV replaces the storage backend selected by the configuration.
func WithKV(kv persistence.KV) Option {
	return func(o *options) { o.kv = kv }
}

// WithBus replaces the in-memory watermill bus.
func WithBus(bus pubsub.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithDirectory replaces the built-in participant directory.
func WithDirectory(dir *directory.Directory) Option {
	return func(o *options) { o.dir = dir }
}

// WithSeeder replaces the random history generator.
func WithSeeder(s chatstore.Seeder) Option {
	return func(o *options) { o.seeder = s }
}

// WithReplyOptions passes extra options to the reply simulator.
func WithReplyOptions(opts ...reply.Option) Option {
	return func(o *options) { o.replyOpts = append(o.replyOpts, opts...) }
}

// WithClock sets the timestamp source for sent messages.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDSource sets the id generator for sent messages.
func WithIDSource(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithVersion sets the version reported to the tracing backend.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// tracing carries the tracer provider's cleanup through the injector.
type tracing struct {
	tracer  trace.Tracer
	cleanup func()
}

// scripting holds the optional reply script; reply is nil when none is configured.
type scripting struct {
	reply *script.ReplyScript
}

// register declares every service of a session on injector. Services are
// built lazily, in dependency order, when the session invokes them.
func register(ctx context.Context, injector do.Injector, cfg config.Config, o options) {
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, o.dir)

	do.Provide(injector, func(i do.Injector) (persistence.KV, error) {
		if o.kv != nil {
			return o.kv, nil
		}
		kv, err := persistence.Open(cfg.Storage, cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)
		}
		return kv, nil
	})

	do.Provide(injector, func(i do.Injector) (*persistence.Gateway, error) {
		kv, err := do.Invoke[persistence.KV](i)
		if err != nil {
			return nil, err
		}
		return persistence.NewGateway(kv), nil
	})

	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*tracing, error) {
		if !cfg.Tracing.Enabled {
			return &tracing{cleanup: func() {}}, nil
		}
		tracer, cleanup, err := pubsub.SetupOTel(ctx, tracingConfig(cfg), o.version)
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
		return &tracing{tracer: tracer, cleanup: cleanup}, nil
	})

	do.Provide(injector, func(i do.Injector) (pubsub.Bus, error) {
		if o.bus != nil {
			return o.bus, nil
		}
		t, err := do.Invoke[*tracing](i)
		if err != nil {
			return nil, err
		}
		return pubsub.NewWatermillBridgeWithTracer(t.tracer), nil
	})

	do.Provide(injector, func(i do.Injector) (chatstore.Seeder, error) {
		if o.seeder != nil {
			return o.seeder, nil
		}
		return seed.NewGenerator(o.dir), nil
	})

	do.Provide(injector, func(i do.Injector) (*chatstore.Store, error) {
		gateway, err := do.Invoke[*persistence.Gateway](i)
		if err != nil {
			return nil, err
		}
		bus, err := do.Invoke[pubsub.Bus](i)
		if err != nil {
			return nil, err
		}
		seeder, err := do.Invoke[chatstore.Seeder](i)
		if err != nil {
			return nil, err
		}
		m, err := do.Invoke[*metrics.Metrics](i)
		if err != nil {
			return nil, err
		}

		snapshot, err := gateway.Load(ctx, persistence.Snapshot{
			Chats:       seeder.Chats(),
			CurrentUser: o.dir.Local(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load chat state: %w", err)
		}

		store := chatstore.New(snapshot, o.dir, seeder, gateway, bus, chatstore.WithRecorder(m))
		m.WatchUnread(store.TotalUnread)
		return store, nil
	})

	do.Provide(injector, func(i do.Injector) (*typing.Tracker, error) {
		bus, err := do.Invoke[pubsub.Bus](i)
		if err != nil {
			return nil, err
		}
		return typing.NewTracker(bus), nil
	})

	do.Provide(injector, func(i do.Injector) (*scripting, error) {
		if cfg.Reply.Script == "" {
			return &scripting{}, nil
		}
		names := func(userID string) string {
			if u, ok := o.dir.Lookup(userID); ok {
				return u.DisplayName
			}
			return userID
		}
		rs, err := script.NewReplyScript(afero.NewOsFs(), cfg.Reply.Script,
			script.NewEngine(script.DefaultSecurityLimits()), names, seed.ReplyPool())
		if err != nil {
			return nil, fmt.Errorf("failed to load reply script: %w", err)
		}
		return &scripting{reply: rs}, nil
	})

	do.Provide(injector, func(i do.Injector) (*reply.Simulator, error) {
		store, err := do.Invoke[*chatstore.Store](i)
		if err != nil {
			return nil, err
		}
		m, err := do.Invoke[*metrics.Metrics](i)
		if err != nil {
			return nil, err
		}
		sc, err := do.Invoke[*scripting](i)
		if err != nil {
			return nil, err
		}

		opts := []reply.Option{reply.WithRecorder(m)}
		if sc.reply != nil {
			opts = append(opts, reply.WithPicker(sc.reply))
		}
		opts = append(opts, o.replyOpts...)

		return reply.New(reply.Config{
			Probability: cfg.Reply.Probability,
			MinDelay:    cfg.Reply.MinDelay,
			MaxDelay:    cfg.Reply.MaxDelay,
		}, store, opts...), nil
	})
}

func tracingConfig(cfg config.Config) pubsub.TracingConfig {
	return pubsub.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		ZipkinURL:   cfg.Tracing.ZipkinURL,
		SampleRatio: cfg.Tracing.SampleRatio,
	}
}

func defaultOptions() options {
	return options{
		dir:     directory.Default(),
		now:     time.Now,
		newID:   newMessageID,
		version: "dev",
	}
}

func logStartup(cfg config.Config, local domain.User) {
	slog.Info("Chat session ready",
		"storage", cfg.Storage,
		"data_dir", cfg.DataDir,
		"user", local.DisplayName,
		"reply_script", cfg.Reply.Script,
		"tracing", cfg.Tracing.Enabled)
}
