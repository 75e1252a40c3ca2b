package config

import (
	"context"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "strata/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

const DefaultSlowCallThreshold = 200 * time.Millisecond

// ToContext adds portal configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts portal configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type PortalConfig struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogFormat     string `envDefault:"text"                      env:"LOG_FORMAT"      yaml:"log_format"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	ServiceName        string `envDefault:"strata-portal" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:""              env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:""              env:"SERVICE_VERSION"     yaml:"service_version"`

	DefaultLanguage string `envDefault:"ms"    env:"PORTAL_DEFAULT_LANGUAGE" yaml:"portal_default_language"`
	DefaultTheme    string `envDefault:"light" env:"PORTAL_DEFAULT_THEME"    yaml:"portal_default_theme"`

	PreferenceStorePath string `envDefault:".strata/preferences.json" env:"PREFERENCE_STORE_PATH" yaml:"preference_store_path"`
	PreferenceStoreURL  string `env:"PREFERENCE_STORE_URL" yaml:"preference_store_url"`

	DeveloperUsername string `envDefault:"Developer" env:"DEVELOPER_USERNAME" yaml:"developer_username"`
	DeveloperPassword string `envDefault:"Developer" env:"DEVELOPER_PASSWORD" yaml:"developer_password"`

	IdentityServiceURI       string   `env:"IDENTITY_SERVICE_URI"         yaml:"identity_service_uri"`
	IdentityServiceKey       string   `env:"IDENTITY_SERVICE_KEY"         yaml:"identity_service_key"`
	IdentityWellKnownJwkData string   `env:"IDENTITY_WELL_KNOWN_JWK_DATA" yaml:"identity_well_known_jwk_data"`
	IdentityVerifyAudience   []string `env:"IDENTITY_JWT_VERIFY_AUDIENCE" yaml:"identity_jwt_verify_audience"`
	IdentityVerifyIssuer     string   `env:"IDENTITY_JWT_VERIFY_ISSUER"   yaml:"identity_jwt_verify_issuer"`

	ContentServiceURI string `env:"CONTENT_SERVICE_URI" yaml:"content_service_uri"`
	ContentServiceKey string `env:"CONTENT_SERVICE_KEY" yaml:"content_service_key"`
	ContentBucketName string `envDefault:"announcements" env:"CONTENT_BUCKET_NAME" yaml:"content_bucket_name"`

	SessionEventsURL     string `env:"SESSION_EVENTS_URL" yaml:"session_events_url"`
	SessionEventsSubject string `envDefault:"strata.session.events" env:"SESSION_EVENTS_SUBJECT" yaml:"session_events_subject"`

	SlowCallThreshold string `envDefault:"200ms" env:"SLOW_CALL_THRESHOLD" yaml:"slow_call_threshold"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(PortalConfig)

func (c *PortalConfig) Name() string {
	return c.ServiceName
}
func (c *PortalConfig) Environment() string {
	return c.ServiceEnvironment
}
func (c *PortalConfig) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(PortalConfig)

func (c *PortalConfig) LoggingLevel() string {
	return c.LogLevel
}

func (c *PortalConfig) LoggingFormat() string {
	return c.LogFormat
}

func (c *PortalConfig) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *PortalConfig) LoggingColored() bool {
	return c.LogColored
}

func (c *PortalConfig) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationPreferences interface {
	GetDefaultLanguage() string
	GetDefaultTheme() string
	GetPreferenceStorePath() string
	GetPreferenceStoreURL() string
}

var _ ConfigurationPreferences = new(PortalConfig)

func (c *PortalConfig) GetDefaultLanguage() string {
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		return "ms"
	}
	return c.DefaultLanguage
}

func (c *PortalConfig) GetDefaultTheme() string {
	if strings.TrimSpace(c.DefaultTheme) == "" {
		return "light"
	}
	return c.DefaultTheme
}

func (c *PortalConfig) GetPreferenceStorePath() string {
	return c.PreferenceStorePath
}

func (c *PortalConfig) GetPreferenceStoreURL() string {
	return c.PreferenceStoreURL
}

type ConfigurationDeveloperAccess interface {
	GetDeveloperUsername() string
	GetDeveloperPassword() string
}

var _ ConfigurationDeveloperAccess = new(PortalConfig)

func (c *PortalConfig) GetDeveloperUsername() string {
	return c.DeveloperUsername
}

func (c *PortalConfig) GetDeveloperPassword() string {
	return c.DeveloperPassword
}

type ConfigurationIdentity interface {
	GetIdentityServiceURI() string
	GetIdentityServiceKey() string
	GetIdentityWellKnownJwkData() string
	GetIdentityVerifyAudience() []string
	GetIdentityVerifyIssuer() string
	GetSlowCallThreshold() time.Duration
}

var _ ConfigurationIdentity = new(PortalConfig)

func (c *PortalConfig) GetIdentityServiceURI() string {
	return c.IdentityServiceURI
}

func (c *PortalConfig) GetIdentityServiceKey() string {
	return c.IdentityServiceKey
}

func (c *PortalConfig) GetIdentityWellKnownJwkData() string {
	return c.IdentityWellKnownJwkData
}

func (c *PortalConfig) GetIdentityVerifyAudience() []string {
	return c.IdentityVerifyAudience
}

func (c *PortalConfig) GetIdentityVerifyIssuer() string {
	return c.IdentityVerifyIssuer
}

func (c *PortalConfig) GetSlowCallThreshold() time.Duration {
	threshold, err := time.ParseDuration(c.SlowCallThreshold)
	if err != nil {
		return DefaultSlowCallThreshold
	}
	return threshold
}

type ConfigurationContent interface {
	GetContentServiceURI() string
	GetContentServiceKey() string
	GetContentBucketName() string
}

var _ ConfigurationContent = new(PortalConfig)

func (c *PortalConfig) GetContentServiceURI() string {
	return c.ContentServiceURI
}

func (c *PortalConfig) GetContentServiceKey() string {
	return c.ContentServiceKey
}

func (c *PortalConfig) GetContentBucketName() string {
	if strings.TrimSpace(c.ContentBucketName) == "" {
		return "announcements"
	}
	return c.ContentBucketName
}

type ConfigurationSessionEvents interface {
	GetSessionEventsURL() string
	GetSessionEventsSubject() string
}

var _ ConfigurationSessionEvents = new(PortalConfig)

func (c *PortalConfig) GetSessionEventsURL() string {
	return c.SessionEventsURL
}

func (c *PortalConfig) GetSessionEventsSubject() string {
	if strings.TrimSpace(c.SessionEventsSubject) == "" {
		return "strata.session.events"
	}
	return c.SessionEventsSubject
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(PortalConfig)

func (c *PortalConfig) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *PortalConfig) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *PortalConfig) GetCount() int {
	return c.WorkerPoolCount
}

func (c *PortalConfig) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}
