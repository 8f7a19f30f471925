package config

import (
	"fmt"
	"time"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// Values is the raw, file/flag-facing shape of the configuration.
type Values struct {
	Server   ServerValues   `koanf:"server"`
	Token    TokenValues    `koanf:"token"`
	Security SecurityValues `koanf:"security"`
	Storage  StorageValues  `koanf:"storage"`
	Cors     CorsValues     `koanf:"cors"`
}

type ServerValues struct {
	Port     string `koanf:"port"`
	AppName  string `koanf:"app_name"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`
}

type TokenValues struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessExpiry  time.Duration `koanf:"access_expiry"`
	RefreshExpiry time.Duration `koanf:"refresh_expiry"`
	Issuer        string        `koanf:"issuer"`
}

type SecurityValues struct {
	LoginAttempts int           `koanf:"login_attempts"`
	LoginWindow   time.Duration `koanf:"login_window"`
	DefaultRole   string        `koanf:"default_role"`
	AdminRole     string        `koanf:"admin_role"`
	BcryptCost    int           `koanf:"bcrypt_cost"`
}

type StorageValues struct {
	DatabaseURL  string `koanf:"database_url"`
	RedisAddr    string `koanf:"redis_addr"`
	SeedOnStart  bool   `koanf:"seed_on_start"`
	InitPassword string `koanf:"init_password"`
}

type CorsValues struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Defaults returns the baseline configuration used before the file, flags and
// environment are applied.
func Defaults() Values {
	return Values{
		Server: ServerValues{
			Port:     "8080",
			AppName:  "Jobboard Auth",
			Env:      "DEV",
			LogLevel: "info",
		},
		Token: TokenValues{
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			Issuer:        "from server",
		},
		Security: SecurityValues{
			LoginAttempts: 3,
			LoginWindow:   60 * time.Second,
			DefaultRole:   "NORMAL_USER",
			AdminRole:     "SUPER_ADMIN",
			BcryptCost:    10,
		},
	}
}

// Validate rejects configurations the token and session layers cannot run with.
func (v Values) Validate() error {
	switch {
	case v.Token.AccessSecret == "" || v.Token.RefreshSecret == "":
		return fmt.Errorf("%w: access and refresh token secrets must be set", errors.ErrInvalidRequest)
	case v.Token.AccessSecret == v.Token.RefreshSecret:
		return fmt.Errorf("%w: access and refresh token secrets must differ", errors.ErrInvalidRequest)
	case v.Token.AccessExpiry <= 0 || v.Token.RefreshExpiry <= 0:
		return fmt.Errorf("%w: token expiries must be positive", errors.ErrInvalidRequest)
	case v.Security.LoginAttempts <= 0 || v.Security.LoginWindow <= 0:
		return fmt.Errorf("%w: login admission limits must be positive", errors.ErrInvalidRequest)
	case v.Security.DefaultRole == "":
		return fmt.Errorf("%w: default role must be set", errors.ErrInvalidRequest)
	}
	return nil
}
