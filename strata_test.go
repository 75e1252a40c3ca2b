package strata_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata"
	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/content"
	"github.com/pitabwire/strata/feedback"
	"github.com/pitabwire/strata/identity"
	"github.com/pitabwire/strata/localization"
	"github.com/pitabwire/strata/preference"
	"github.com/pitabwire/strata/role"
	"github.com/pitabwire/strata/session"
)

type AppTestSuite struct {
	suite.Suite
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, &AppTestSuite{})
}

func (s *AppTestSuite) newApp(opts ...strata.Option) (context.Context, *strata.App) {
	cfg, err := config.FromEnv[config.PortalConfig]()
	s.Require().NoError(err)
	cfg.PreferenceStorePath = filepath.Join(s.T().TempDir(), "prefs.json")

	opts = append([]strata.Option{strata.WithConfig(&cfg)}, opts...)

	ctx, app, err := strata.New(context.Background(), opts...)
	s.Require().NoError(err)
	s.T().Cleanup(func() { app.Stop(ctx) })

	return ctx, app
}

func (s *AppTestSuite) TestDefaultsToLocalBackends() {
	ctx, app := s.newApp()

	require.IsType(s.T(), &identity.InMemoryService{}, app.Identity())
	require.Equal(s.T(), localization.LanguageMalay, app.Preferences().Language())
	require.Equal(s.T(), preference.ThemeLight, app.Preferences().Theme())
	require.Equal(s.T(), "Utama", app.Translate(ctx, "nav.home"))
	require.Equal(s.T(), role.RoleVisitor, app.Roles().Current())
}

func (s *AppTestSuite) TestResidentJourney() {
	svc := identity.NewInMemoryService()
	svc.Seed("aminah@example.com", "rumahku1",
		identity.Profile{FullName: "Aminah binti Yusof"}, true)

	ctx, app := s.newApp(strata.WithIdentityService(svc))

	// The resident switches to English before signing in.
	app.Preferences().SetLanguage(ctx, localization.LanguageEnglish)
	require.Equal(s.T(), "Home", app.Translate(ctx, "nav.home"))

	require.NoError(s.T(), app.Session().SignIn(ctx, "aminah@example.com", "rumahku1"))
	require.Equal(s.T(), session.StatusAuthenticated, app.Session().Snapshot().Status)
	require.Equal(s.T(), role.RoleResident, app.Roles().Current())

	created, err := app.Feedback().Submit(ctx, feedback.Submission{
		Type:    feedback.TypeSecurity,
		Subject: "Pagar belakang",
		Details: "Pagar belakang Fasa 3 tidak berkunci.",
		Email:   "aminah@example.com",
	})
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), created.ID)

	require.NoError(s.T(), app.Session().SignOut(ctx))
	require.Equal(s.T(), role.RoleVisitor, app.Roles().Current())
}

func (s *AppTestSuite) TestDeveloperJourney() {
	ctx, app := s.newApp()

	require.True(s.T(), app.DevMode().Login(ctx, "Developer", "Developer"))
	require.Equal(s.T(), role.RoleDeveloper, app.Roles().Current())
	require.True(s.T(), app.Roles().CanEditContent())

	title := "Mesyuarat Agung Tahunan"
	announcement, err := app.Content().CreateAnnouncement(ctx, content.AnnouncementChange{Title: &title})
	require.NoError(s.T(), err)
	require.Equal(s.T(), title, announcement.Title)

	app.DevMode().Logout(ctx)
	require.False(s.T(), app.Roles().CanEditContent())
}
