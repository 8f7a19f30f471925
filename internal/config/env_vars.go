package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	accessSecretEnvVar  = "JWT_ACCESS_TOKEN_SECRET"
	refreshSecretEnvVar = "JWT_REFRESH_TOKEN_SECRET"
	databaseURLEnvVar   = "DATABASE_URL"
	redisAddrEnvVar     = "REDIS_ADDR"
	initPasswordEnvVar  = "INIT_PASSWORD"
	envEnvVar           = "ENV"
	portEnvVar          = "PORT"
)

const ProdEnv = "PROD"

type EnvVars struct {
	port     string
	appName  string
	env      string
	logLevel string
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	return e.port
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

func (e EnvVars) GetEnv() string {
	if e.env == "" {
		return "DEV"
	}
	return e.env
}

func (e EnvVars) GetLogLevel() string {
	return e.logLevel
}

func (e EnvVars) IsProduction() bool {
	return strings.EqualFold(e.GetEnv(), ProdEnv)
}

func normalisePort(port string) string {
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// applyEnvOverrides lets deployment secrets come from the environment rather than
// the config file.
func applyEnvOverrides(v *Values) {
	v.Token.AccessSecret = GetEnv(accessSecretEnvVar, v.Token.AccessSecret)
	v.Token.RefreshSecret = GetEnv(refreshSecretEnvVar, v.Token.RefreshSecret)
	v.Storage.DatabaseURL = GetEnv(databaseURLEnvVar, v.Storage.DatabaseURL)
	v.Storage.RedisAddr = GetEnv(redisAddrEnvVar, v.Storage.RedisAddr)
	v.Storage.InitPassword = GetEnv(initPasswordEnvVar, v.Storage.InitPassword)
	v.Server.Env = GetEnv(envEnvVar, v.Server.Env)
	v.Server.Port = GetEnv(portEnvVar, v.Server.Port)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
