package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	APIConfig
	CacheConfig
	CredentialConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetBaseURL() string
	GetAuthBaseURL() string
	GetRefreshPath() string
	GetHTTPTimeout() time.Duration
	GetRequestsPerMinute() int
	GetRequestBurst() int
}

type CacheConfig interface {
	GetStalenessWindow() time.Duration
	GetDetailCacheSize() int
	GetDetailCacheTTL() time.Duration
	GetSnapshotPath() string
}

type CredentialConfig interface {
	GetCredentialTier() string
	GetKeyringService() string
	GetCredentialFile() string
	GetCredentialPassphrase() string
}

type TelemetryConfig interface {
	GetOTLPEndpoint() string
	GetOTLPProtocol() string
	GetOTLPInsecure() bool
	GetServiceName() string
}

type mainConfig struct {
	EnvVars
	API
	Cache
	Credentials
	Telemetry
}

// New loads configuration from SCHOOLTRACKER_* environment variables and an
// optional schooltracker.yaml in the working directory or ~/.schooltracker.
func New() (Config, error) {
	v := viper.New()
	v.SetConfigName("schooltracker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.schooltracker")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return FromViper(v), nil
}

// FromViper builds a Config over an existing viper instance, applying defaults
// and environment binding.
func FromViper(v *viper.Viper) Config {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return mainConfig{
		EnvVars:     EnvVars{v: v},
		API:         API{v: v},
		Cache:       Cache{v: v},
		Credentials: Credentials{v: v},
		Telemetry:   Telemetry{v: v},
	}
}
