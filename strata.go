// Package strata assembles the resident portal state layer: localized
// content, resident preferences, developer mode, the authenticated
// session and the content clients, wired together with explicit
// dependencies instead of ambient globals.
package strata

import (
	"context"
	"net/http"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/content"
	"github.com/pitabwire/strata/devmode"
	"github.com/pitabwire/strata/feedback"
	"github.com/pitabwire/strata/identity"
	"github.com/pitabwire/strata/localization"
	"github.com/pitabwire/strata/preference"
	"github.com/pitabwire/strata/role"
	"github.com/pitabwire/strata/session"
	sessionnats "github.com/pitabwire/strata/session/nats"
	"github.com/pitabwire/strata/store"
	redisstore "github.com/pitabwire/strata/store/redis"
	"github.com/pitabwire/strata/workerpool"
)

const shutdownGrace = 5 * time.Second

// App is the assembled portal. Every subsystem is reachable through an
// accessor; none of them reach for globals.
type App struct {
	cfg    *config.PortalConfig
	logger *util.LogEntry
	client *http.Client

	loc       localization.Manager
	pool      workerpool.Pool
	prefStore store.RawStore
	prefs     *preference.Manager
	dev       *devmode.Manager
	ids       identity.Service
	sess      *session.Manager
	roles     *role.Resolver
	contents  content.Service
	collector *feedback.Collector
	relay     *sessionnats.Relay
}

// New builds the portal. Configuration comes from the environment
// unless overridden through options; the returned context carries the
// configuration and logger for every subsystem call.
func New(ctx context.Context, opts ...Option) (context.Context, *App, error) {
	app := &App{client: http.DefaultClient}

	for _, opt := range opts {
		opt(ctx, app)
	}

	if app.cfg == nil {
		cfg, err := config.FromEnv[config.PortalConfig]()
		if err != nil {
			return ctx, nil, err
		}
		app.cfg = &cfg
	}
	ctx = config.ToContext(ctx, app.cfg)

	app.logger = newLogger(ctx, app.cfg).WithField("service", app.cfg.Name())
	ctx = util.ContextWithLogger(ctx, app.logger)

	if app.loc == nil {
		loc, err := localization.NewManager()
		if err != nil {
			return ctx, nil, err
		}
		app.loc = loc
	}

	if app.pool == nil {
		pool, err := workerpool.New(ctx, workerpool.DefaultOptions(app.cfg, app.logger))
		if err != nil {
			return ctx, nil, err
		}
		app.pool = pool
	}

	if app.prefStore == nil {
		prefStore, err := newPreferenceStore(ctx, app.cfg)
		if err != nil {
			return ctx, nil, err
		}
		app.prefStore = prefStore
	}
	app.prefs = preference.New(ctx, app.cfg, app.loc, app.prefStore, app.pool)

	app.dev = devmode.New(app.cfg)

	if app.ids == nil {
		if app.cfg.GetIdentityServiceURI() != "" {
			app.ids = identity.NewHTTPService(app.cfg, app.client)
		} else {
			app.ids = identity.NewInMemoryService()
		}
	}
	app.sess = session.New(ctx, app.ids, app.pool)

	app.roles = role.NewResolver(app.dev, app.sess)

	if app.contents == nil {
		if app.cfg.GetContentServiceURI() != "" {
			app.contents = content.NewHTTPService(app.cfg, app.client)
		} else {
			app.contents = content.NewInMemoryService()
		}
	}
	app.collector = feedback.NewCollector(app.contents)

	if app.cfg.GetSessionEventsURL() != "" {
		relay, err := sessionnats.NewRelay(ctx, app.cfg, app.sess, nil)
		if err != nil {
			return ctx, nil, err
		}
		app.relay = relay
	}

	return ctx, app, nil
}

func newLogger(ctx context.Context, cfg config.ConfigurationLogLevel) *util.LogEntry {
	var opts []util.Option
	if logLevel, err := util.ParseLevel(cfg.LoggingLevel()); err == nil {
		opts = append(opts, util.WithLogLevel(logLevel))
	}
	opts = append(opts,
		util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
		util.WithLogNoColor(!cfg.LoggingColored()))

	return util.NewLogger(ctx, opts...)
}

func newPreferenceStore(ctx context.Context, cfg config.ConfigurationPreferences) (store.RawStore, error) {
	if storeURL := cfg.GetPreferenceStoreURL(); storeURL != "" {
		return redisstore.New(redisstore.Options{Addr: storeURL, KeyPrefix: "preferences"})
	}
	return store.NewFileStore(ctx, cfg.GetPreferenceStorePath())
}

// Config returns the active configuration.
func (a *App) Config() *config.PortalConfig { return a.cfg }

// Log returns the application logger bound to the supplied context.
func (a *App) Log(ctx context.Context) *util.LogEntry { return a.logger.WithContext(ctx) }

// Localization returns the translation manager.
func (a *App) Localization() localization.Manager { return a.loc }

// Preferences returns the language and theme state.
func (a *App) Preferences() *preference.Manager { return a.prefs }

// DevMode returns the developer elevation state.
func (a *App) DevMode() *devmode.Manager { return a.dev }

// Identity returns the identity service client in use.
func (a *App) Identity() identity.Service { return a.ids }

// Session returns the session state machine.
func (a *App) Session() *session.Manager { return a.sess }

// Roles returns the effective role resolver.
func (a *App) Roles() *role.Resolver { return a.roles }

// Content returns the content service client in use.
func (a *App) Content() content.Service { return a.contents }

// Feedback returns the validating feedback collector.
func (a *App) Feedback() *feedback.Collector { return a.collector }

// Translate resolves a message id against the resident's active locale.
func (a *App) Translate(ctx context.Context, messageID string) string {
	return a.prefs.Translate(ctx, messageID)
}

// Stop tears the portal down in reverse dependency order.
func (a *App) Stop(ctx context.Context) {
	if a.roles != nil {
		a.roles.Close()
	}
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			a.Log(ctx).WithError(err).Warn("session event relay did not close cleanly")
		}
	}
	if a.sess != nil {
		a.sess.Close()
	}
	if a.pool != nil {
		a.pool.Shutdown(shutdownGrace)
	}
	if a.prefStore != nil {
		if err := a.prefStore.Close(); err != nil {
			a.Log(ctx).WithError(err).Warn("preference store did not close cleanly")
		}
	}
}
