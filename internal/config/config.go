package config

import "time"

// Config is the immutable runtime configuration. It is built once at startup and
// passed explicitly to every component that needs it.
type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type TokenConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetIssuer() string
}

type StorageConfig interface {
	GetDatabaseURL() string
	GetRedisAddr() string
	GetSeedOnStart() bool
	GetInitPassword() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Storage
}

// New freezes the given values into a Config. Slices are copied so later changes
// to v are not observed.
func New(v Values) Config {
	return mainConfig{
		EnvVars: EnvVars{
			port:     normalisePort(v.Server.Port),
			appName:  v.Server.AppName,
			env:      v.Server.Env,
			logLevel: v.Server.LogLevel,
		},
		Cors: newCors(v.Cors),
		Token: Token{
			accessSecret:  v.Token.AccessSecret,
			refreshSecret: v.Token.RefreshSecret,
			accessExpiry:  v.Token.AccessExpiry,
			refreshExpiry: v.Token.RefreshExpiry,
			issuer:        v.Token.Issuer,
		},
		Security: Security{
			loginAttempts: v.Security.LoginAttempts,
			loginWindow:   v.Security.LoginWindow,
			defaultRole:   v.Security.DefaultRole,
			adminRole:     v.Security.AdminRole,
			bcryptCost:    v.Security.BcryptCost,
		},
		Storage: Storage{
			databaseURL:  v.Storage.DatabaseURL,
			redisAddr:    v.Storage.RedisAddr,
			seedOnStart:  v.Storage.SeedOnStart,
			initPassword: v.Storage.InitPassword,
		},
	}
}
