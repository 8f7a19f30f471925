package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const delim = "."

// RegisterFlags adds the command line overrides understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("server.port", d.Server.Port, "HTTP listen port")
	fs.String("server.env", d.Server.Env, "runtime environment (DEV, PROD)")
	fs.String("server.log_level", d.Server.LogLevel, "log level (debug, info, warn, error)")
	fs.Duration("token.access_expiry", d.Token.AccessExpiry, "access token lifetime")
	fs.Duration("token.refresh_expiry", d.Token.RefreshExpiry, "refresh token lifetime")
	fs.Int("security.login_attempts", d.Security.LoginAttempts, "login attempts admitted per window")
	fs.Duration("security.login_window", d.Security.LoginWindow, "login admission window")
	fs.Bool("storage.seed_on_start", d.Storage.SeedOnStart, "seed roles, permissions and admin on start")
}

// Load builds the configuration from defaults, an optional YAML file, command
// flags and finally secret environment variables, and validates it.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v, err := Read(path, fs)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return New(v), nil
}

// Read layers the configuration sources like Load but skips validation. Commands
// that never issue tokens, such as migrations, use it so they run without secrets.
func Read(path string, fs *pflag.FlagSet) (Values, error) {
	k := koanf.New(delim)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Values{}, fmt.Errorf("[config.Read] reading %s: %w", path, err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, delim, k), nil); err != nil {
			return Values{}, fmt.Errorf("[config.Read] reading flags: %w", err)
		}
	}

	v := Defaults()
	if err := k.Unmarshal("", &v); err != nil {
		return Values{}, fmt.Errorf("[config.Read] decoding: %w", err)
	}
	applyEnvOverrides(&v)
	return v, nil
}
