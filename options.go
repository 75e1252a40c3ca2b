package strata

import (
	"context"
	"net/http"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/content"
	"github.com/pitabwire/strata/identity"
	"github.com/pitabwire/strata/localization"
	"github.com/pitabwire/strata/store"
	"github.com/pitabwire/strata/workerpool"
)

// Option configures the portal during assembly.
type Option func(ctx context.Context, app *App)

// WithConfig supplies configuration directly instead of reading the
// environment.
func WithConfig(cfg *config.PortalConfig) Option {
	return func(_ context.Context, app *App) {
		app.cfg = cfg
	}
}

// WithHTTPClient replaces the HTTP client used by the remote service
// clients.
func WithHTTPClient(client *http.Client) Option {
	return func(_ context.Context, app *App) {
		if client != nil {
			app.client = client
		}
	}
}

// WithLocalization supplies a prebuilt translation manager.
func WithLocalization(loc localization.Manager) Option {
	return func(_ context.Context, app *App) {
		app.loc = loc
	}
}

// WithPreferenceStore replaces the durable preference backend.
func WithPreferenceStore(raw store.RawStore) Option {
	return func(_ context.Context, app *App) {
		app.prefStore = raw
	}
}

// WithIdentityService replaces the identity backend.
func WithIdentityService(svc identity.Service) Option {
	return func(_ context.Context, app *App) {
		app.ids = svc
	}
}

// WithContentService replaces the content backend.
func WithContentService(svc content.Service) Option {
	return func(_ context.Context, app *App) {
		app.contents = svc
	}
}

// WithWorkerPool replaces the background task pool.
func WithWorkerPool(pool workerpool.Pool) Option {
	return func(_ context.Context, app *App) {
		app.pool = pool
	}
}
