package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	AuthConfig
	SecurityConfig
	DirectoryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetAuthConfigFile() string
	GetDatabaseURL() string
	GetSessionBackend() string
	GetRedisAddress() string
	GetSessionSweepSchedule() string
	GetUpstreamURL() string
}

type mainConfig struct {
	EnvVars
	*Settings
}

// New loads .env files, then the auth settings file named by AUTH_CONFIG.
func New() (Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	env := EnvVars{}
	settings, err := LoadSettings(env.GetAuthConfigFile())
	if err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return mainConfig{EnvVars: env, Settings: settings}, nil
}

// NewFromSettings builds a Config around already loaded settings
func NewFromSettings(settings *Settings) Config {
	return mainConfig{EnvVars: EnvVars{}, Settings: settings}
}
