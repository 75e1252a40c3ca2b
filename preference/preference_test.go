package preference_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/localization"
	"github.com/pitabwire/strata/preference"
	"github.com/pitabwire/strata/store"
	"github.com/pitabwire/strata/workerpool"
)

type PreferenceTestSuite struct {
	suite.Suite

	loc localization.Manager
}

func TestPreferenceSuite(t *testing.T) {
	suite.Run(t, &PreferenceTestSuite{})
}

func (s *PreferenceTestSuite) SetupSuite() {
	loc, err := localization.NewManager()
	s.Require().NoError(err)
	s.loc = loc
}

func (s *PreferenceTestSuite) newManager(raw store.RawStore) *preference.Manager {
	return preference.New(context.Background(), &config.PortalConfig{}, s.loc, raw, nil)
}

func (s *PreferenceTestSuite) TestDefaults() {
	m := s.newManager(store.NewInMemoryStore())

	require.Equal(s.T(), localization.LanguageMalay, m.Language())
	require.Equal(s.T(), preference.ThemeLight, m.Theme())
	require.Equal(s.T(), "Utama", m.Translate(context.Background(), "nav.home"))
}

func (s *PreferenceTestSuite) TestSetLanguageIsImmediatelyVisible() {
	ctx := context.Background()
	m := s.newManager(store.NewInMemoryStore())

	m.SetLanguage(ctx, localization.LanguageEnglish)

	require.Equal(s.T(), localization.LanguageEnglish, m.Language())
	require.Equal(s.T(), "Home", m.Translate(ctx, "nav.home"))
}

func (s *PreferenceTestSuite) TestSetLanguageRejectsUnsupportedLocale() {
	ctx := context.Background()
	m := s.newManager(store.NewInMemoryStore())

	m.SetLanguage(ctx, localization.Language("sw"))

	require.Equal(s.T(), localization.LanguageMalay, m.Language())
}

func (s *PreferenceTestSuite) TestThemeToggle() {
	ctx := context.Background()
	m := s.newManager(store.NewInMemoryStore())

	require.Equal(s.T(), preference.ThemeDark, m.ToggleTheme(ctx))
	require.Equal(s.T(), preference.ThemeLight, m.ToggleTheme(ctx))

	m.SetTheme(ctx, preference.ThemeDark)
	require.Equal(s.T(), preference.ThemeDark, m.Theme())

	m.SetTheme(ctx, preference.Theme("sepia"))
	require.Equal(s.T(), preference.ThemeDark, m.Theme())
}

func (s *PreferenceTestSuite) TestPreferencesSurviveRestart() {
	ctx := context.Background()
	path := filepath.Join(s.T().TempDir(), "prefs.json")

	raw, err := store.NewFileStore(ctx, path)
	require.NoError(s.T(), err)

	m := s.newManager(raw)
	m.SetLanguage(ctx, localization.LanguageEnglish)
	m.SetTheme(ctx, preference.ThemeDark)
	require.NoError(s.T(), raw.Close())

	reopened, err := store.NewFileStore(ctx, path)
	require.NoError(s.T(), err)
	defer reopened.Close()

	restored := s.newManager(reopened)
	require.Equal(s.T(), localization.LanguageEnglish, restored.Language())
	require.Equal(s.T(), preference.ThemeDark, restored.Theme())
}

func (s *PreferenceTestSuite) TestInvalidPersistedValuesFallBackToDefaults() {
	ctx := context.Background()
	raw := store.NewInMemoryStore()

	seed := store.NewGenericStore[string, string](raw, nil)
	require.NoError(s.T(), seed.Set(ctx, "language", "klingon"))
	require.NoError(s.T(), seed.Set(ctx, "theme", "sepia"))

	m := s.newManager(raw)

	require.Equal(s.T(), localization.LanguageMalay, m.Language())
	require.Equal(s.T(), preference.ThemeLight, m.Theme())
}

func (s *PreferenceTestSuite) TestPersistenceThroughWorkerPool() {
	ctx := context.Background()
	raw := store.NewInMemoryStore()

	pool, err := workerpool.New(ctx, &workerpool.Options{SinglePoolCapacity: 2, PoolCount: 1})
	require.NoError(s.T(), err)
	defer pool.Shutdown(time.Second)

	m := preference.New(ctx, &config.PortalConfig{}, s.loc, raw, pool)
	m.SetLanguage(ctx, localization.LanguageEnglish)

	// The in-memory value changes immediately, the durable copy follows.
	require.Equal(s.T(), localization.LanguageEnglish, m.Language())

	persisted := store.NewGenericStore[string, string](raw, nil)
	require.Eventually(s.T(), func() bool {
		value, found, getErr := persisted.Get(ctx, "language")
		return getErr == nil && found && value == "en"
	}, 2*time.Second, 10*time.Millisecond)
}
