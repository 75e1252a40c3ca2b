package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata/config"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, &ConfigTestSuite{})
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := config.FromEnv[config.PortalConfig]()
	require.NoError(s.T(), err)

	require.Equal(s.T(), "strata-portal", cfg.Name())
	require.Equal(s.T(), "ms", cfg.GetDefaultLanguage())
	require.Equal(s.T(), "light", cfg.GetDefaultTheme())
	require.Equal(s.T(), "Developer", cfg.GetDeveloperUsername())
	require.Equal(s.T(), "Developer", cfg.GetDeveloperPassword())
	require.Equal(s.T(), "announcements", cfg.GetContentBucketName())
	require.Equal(s.T(), "strata.session.events", cfg.GetSessionEventsSubject())
	require.Equal(s.T(), config.DefaultSlowCallThreshold, cfg.GetSlowCallThreshold())
	require.Equal(s.T(), time.Second, cfg.GetExpiryDuration())
}

func (s *ConfigTestSuite) TestEnvironmentOverrides() {
	s.T().Setenv("PORTAL_DEFAULT_LANGUAGE", "en")
	s.T().Setenv("PORTAL_DEFAULT_THEME", "dark")
	s.T().Setenv("SLOW_CALL_THRESHOLD", "750ms")
	s.T().Setenv("DEVELOPER_USERNAME", "pentadbir")

	cfg, err := config.FromEnv[config.PortalConfig]()
	require.NoError(s.T(), err)

	require.Equal(s.T(), "en", cfg.GetDefaultLanguage())
	require.Equal(s.T(), "dark", cfg.GetDefaultTheme())
	require.Equal(s.T(), 750*time.Millisecond, cfg.GetSlowCallThreshold())
	require.Equal(s.T(), "pentadbir", cfg.GetDeveloperUsername())
}

func (s *ConfigTestSuite) TestBlankValuesFallBack() {
	cfg := &config.PortalConfig{SlowCallThreshold: "not a duration"}

	require.Equal(s.T(), "ms", cfg.GetDefaultLanguage())
	require.Equal(s.T(), "light", cfg.GetDefaultTheme())
	require.Equal(s.T(), "announcements", cfg.GetContentBucketName())
	require.Equal(s.T(), config.DefaultSlowCallThreshold, cfg.GetSlowCallThreshold())
}

func (s *ConfigTestSuite) TestContextRoundTrip() {
	cfg := &config.PortalConfig{ServiceName: "strata-test"}
	ctx := config.ToContext(context.Background(), cfg)

	recovered := config.FromContext[*config.PortalConfig](ctx)
	require.NotNil(s.T(), recovered)
	require.Equal(s.T(), "strata-test", recovered.Name())

	require.Nil(s.T(), config.FromContext[*config.PortalConfig](context.Background()))
}
