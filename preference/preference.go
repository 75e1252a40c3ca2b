// Package preference holds the resident's portal preferences: active
// language and visual theme. Values live in memory for immediate reads
// and are mirrored to a durable store on a best-effort basis.
package preference

import (
	"context"
	"strings"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/localization"
	"github.com/pitabwire/strata/store"
	"github.com/pitabwire/strata/workerpool"
)

// Theme is one of the two portal visual modes.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme applies when nothing valid is persisted.
const DefaultTheme = ThemeLight

// Storage keys are fixed; they match what the portal has always written.
const (
	storageKeyLanguage = "language"
	storageKeyTheme    = "theme"
)

// ParseTheme normalises a raw tag to a Theme.
func ParseTheme(tag string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(tag))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return "", false
	}
}

// Manager is the preference state holder. Reads are served from memory,
// so a set is visible on the very next call.
type Manager struct {
	mu       sync.RWMutex
	language localization.Language
	theme    Theme

	defaultLanguage localization.Language
	defaultTheme    Theme

	prefs store.Store[string, string]
	pool  workerpool.Pool
	loc   localization.Manager
}

// New loads persisted preferences, falling back to configured defaults
// when the store holds nothing usable.
func New(
	ctx context.Context,
	cfg config.ConfigurationPreferences,
	loc localization.Manager,
	raw store.RawStore,
	pool workerpool.Pool,
) *Manager {
	defaultLanguage := localization.DefaultLanguage
	defaultTheme := DefaultTheme
	if cfg != nil {
		if lang, ok := localization.ParseLanguage(cfg.GetDefaultLanguage()); ok {
			defaultLanguage = lang
		}
		if theme, ok := ParseTheme(cfg.GetDefaultTheme()); ok {
			defaultTheme = theme
		}
	}

	m := &Manager{
		language:        defaultLanguage,
		theme:           defaultTheme,
		defaultLanguage: defaultLanguage,
		defaultTheme:    defaultTheme,
		prefs:           store.NewGenericStore[string, string](raw, nil),
		pool:            pool,
		loc:             loc,
	}

	m.restore(ctx)

	return m
}

func (m *Manager) restore(ctx context.Context) {
	if tag, ok := m.load(ctx, storageKeyLanguage); ok {
		if lang, valid := localization.ParseLanguage(tag); valid {
			m.language = lang
		} else {
			util.Log(ctx).WithField("value", tag).
				Debug("persisted language is not a supported locale, using default")
		}
	}

	if tag, ok := m.load(ctx, storageKeyTheme); ok {
		if theme, valid := ParseTheme(tag); valid {
			m.theme = theme
		} else {
			util.Log(ctx).WithField("value", tag).
				Debug("persisted theme is not a supported mode, using default")
		}
	}
}

func (m *Manager) load(ctx context.Context, key string) (string, bool) {
	value, found, err := m.prefs.Get(ctx, key)
	if err != nil {
		// Loss of persistence is never user visible beyond defaults.
		util.Log(ctx).WithError(err).WithField("key", key).
			Warn("could not read persisted preference")
		return "", false
	}
	return value, found
}

// Language returns the active locale.
func (m *Manager) Language() localization.Language {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.language
}

// SetLanguage activates the supplied locale and persists it. The change
// is visible to Translate immediately; the durable write is best effort.
func (m *Manager) SetLanguage(ctx context.Context, lang localization.Language) {
	parsed, ok := localization.ParseLanguage(string(lang))
	if !ok {
		util.Log(ctx).WithField("language", lang).
			Warn("ignoring attempt to set an unsupported locale")
		return
	}

	m.mu.Lock()
	m.language = parsed
	m.mu.Unlock()

	m.persist(ctx, storageKeyLanguage, string(parsed))
}

// Translate resolves a message id against the active locale.
func (m *Manager) Translate(ctx context.Context, messageID string) string {
	return m.loc.Resolve(ctx, m.Language(), messageID)
}

// Theme returns the active visual mode.
func (m *Manager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// SetTheme activates the supplied visual mode and persists it.
func (m *Manager) SetTheme(ctx context.Context, theme Theme) {
	parsed, ok := ParseTheme(string(theme))
	if !ok {
		util.Log(ctx).WithField("theme", theme).
			Warn("ignoring attempt to set an unsupported theme")
		return
	}

	m.mu.Lock()
	m.theme = parsed
	m.mu.Unlock()

	m.persist(ctx, storageKeyTheme, string(parsed))
}

// ToggleTheme flips between light and dark and returns the new mode.
func (m *Manager) ToggleTheme(ctx context.Context) Theme {
	m.mu.Lock()
	if m.theme == ThemeLight {
		m.theme = ThemeDark
	} else {
		m.theme = ThemeLight
	}
	theme := m.theme
	m.mu.Unlock()

	m.persist(ctx, storageKeyTheme, string(theme))
	return theme
}

func (m *Manager) persist(ctx context.Context, key, value string) {
	write := func() {
		if err := m.prefs.Set(ctx, key, value); err != nil {
			util.Log(ctx).WithError(err).WithField("key", key).
				Warn("could not persist preference")
		}
	}

	if m.pool == nil {
		write()
		return
	}

	if err := m.pool.Submit(ctx, write); err != nil {
		// Pool saturation must not lose the preference, write inline.
		write()
	}
}
