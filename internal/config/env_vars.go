package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	authConfigVar   = "AUTH_CONFIG"
	databaseURLVar  = "DATABASE_URL"
	sessionBackend  = "SESSION_BACKEND"
	redisAddressVar = "REDIS_ADDRESS"
	sessionSweepVar = "SESSION_SWEEP_SCHEDULE"
	upstreamURLVar  = "UPSTREAM_URL"
	logLevelEnvVar  = "LOG_LEVEL"
	logFormatEnvVar = "LOG_FORMAT"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Gate")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetLogFormat() string {
	return GetEnv(logFormatEnvVar, "json")
}

// GetAuthConfigFile is the YAML file holding the auth settings
func (EnvVars) GetAuthConfigFile() string {
	return GetEnv(authConfigVar, "auth.yaml")
}

// GetDatabaseURL is either a sqlite file name or a postgres:// URL
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "logins.sqlite")
}

func (EnvVars) GetSessionBackend() string {
	return strings.ToLower(GetEnv(sessionBackend, SessionBackendMemory))
}

func (EnvVars) GetRedisAddress() string {
	return GetEnv(redisAddressVar, "localhost:6379")
}

// GetSessionSweepSchedule is a cron spec for purging expired in-memory sessions
func (EnvVars) GetSessionSweepSchedule() string {
	return GetEnv(sessionSweepVar, "@every 5m")
}

// GetUpstreamURL is the site behind the gate. Empty serves the built-in page.
func (EnvVars) GetUpstreamURL() string {
	return os.Getenv(upstreamURLVar)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
