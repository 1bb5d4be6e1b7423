// Package config merges command line arguments, flags, environment variables
// and an optional config file into a Config.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Hill11235/scratch-http-server/internal/accesslog"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Usage is printed whenever the server cannot make sense of its arguments.
const Usage = "Usage: httpserver <document_root> <port>"

// EnvPrefix prefixes every environment variable the server reads, e.g.
// HTTPSERVER_LOG_FILE.
const EnvPrefix = "HTTPSERVER"

const maxPort = 65535

type Config struct {
	Root     string `mapstructure:"root"`
	Port     int    `mapstructure:"port"`
	LogFile  string `mapstructure:"log_file"`
	MaxConns int    `mapstructure:"max_conns"`
	Trace    bool   `mapstructure:"trace"`
	Debug    bool   `mapstructure:"debug"`
}

// UsageError means the arguments were malformed and nothing was started.
type UsageError struct {
	Cause error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid arguments: %s", e.Cause)
}

func (e *UsageError) Unwrap() error {
	return e.Cause
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-file":  "log_file",
	"max-conns": "max_conns",
	"trace":     "trace",
	"debug":     "debug",
	"config":    "config",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_file", accesslog.DefaultPath)
	v.SetDefault("max_conns", 0)
	v.SetDefault("trace", false)
	v.SetDefault("debug", false)
	return v
}

// BindFlags ties every known flag in fs to its config key. Unknown flags are
// ignored.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the optional config file, applies the positional
// <document_root> <port> arguments and validates the result.
func Load(v *viper.Viper, args []string) (Config, error) {
	if len(args) != 2 {
		return Config{}, &UsageError{Cause: fmt.Errorf("expected 2 arguments, got %d", len(args))}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	port, err := strconv.Atoi(args[1])
	if err != nil {
		return Config{}, &UsageError{Cause: err}
	}
	v.Set("root", args[0])
	v.Set("port", port)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Root == "" {
		return &UsageError{Cause: errors.New("document root must not be empty")}
	}
	if c.Port < 0 || c.Port > maxPort {
		return &UsageError{Cause: fmt.Errorf("port out of range: %d", c.Port)}
	}
	if c.MaxConns < 0 {
		return &UsageError{Cause: fmt.Errorf("max-conns must not be negative: %d", c.MaxConns)}
	}
	if c.LogFile == "" {
		return &UsageError{Cause: errors.New("log file must not be empty")}
	}
	return nil
}
