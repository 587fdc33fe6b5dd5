// Package config loads the event streams service configuration.
//
// Values are layered: built-in defaults, then a YAML file, then a .env file,
// then EVENTSTREAMS_* process environment variables. Command-line flags are
// applied by the binaries on top of the loaded Config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/hostlink"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/httpapi"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/redisstore"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/codec"
)

// EnvPrefix prefixes every environment variable the loader reads
const EnvPrefix = "EVENTSTREAMS_"

// DefaultEnvFile is read when LoadOptions.EnvFile is empty. It may be absent.
const DefaultEnvFile = ".env"

// Config is the complete service configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Codec    string         `yaml:"codec"`
	Redis    RedisConfig    `yaml:"redis"`
	HostLink HostLinkConfig `yaml:"hostlink"`
	HTTP     HTTPConfig     `yaml:"http"`
	// Bindings are actors bound at startup, before any host call arrives
	Bindings []Binding `yaml:"bindings,omitempty"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// RedisConfig configures the store connector
type RedisConfig struct {
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	VerifyOnOpen bool          `yaml:"verify_on_open"`
	PoolSize     int           `yaml:"pool_size"`
}

// HostLinkConfig configures the gRPC host link
type HostLinkConfig struct {
	ListenAddress  string `yaml:"listen_address"`
	HostAddress    string `yaml:"host_address"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// HTTPConfig configures the HTTP gateway
type HTTPConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ListenAddress string        `yaml:"listen_address"`
	SecretKey     string        `yaml:"secret_key"`
	AdminKey      string        `yaml:"admin_key"`
	NoAuth        bool          `yaml:"no_auth"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// Binding binds Actor to the store at URL
type Binding struct {
	Actor string `yaml:"actor"`
	URL   string `yaml:"url"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Codec: codec.MsgPack{}.Name(),
		Redis: RedisConfig{
			DialTimeout: 5 * time.Second,
			PoolSize:    10,
		},
		HostLink: HostLinkConfig{
			ListenAddress:  ":9090",
			MaxMessageSize: 4 * 1024 * 1024,
		},
		HTTP: HTTPConfig{
			Enabled:       true,
			ListenAddress: ":8082",
			SecretKey:     "eventstreams-dev-secret-key-change-in-production",
			TokenTTL:      httpapi.DefaultTokenTTL,
		},
	}
}

// LoadOptions names the files Load reads
type LoadOptions struct {
	// ConfigFile is a YAML file. Empty means defaults only.
	ConfigFile string
	// EnvFile is a dotenv file. Empty means DefaultEnvFile, ignored when missing.
	EnvFile string
	// LookupEnv reads process environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from defaults, the YAML file, the dotenv file and the environment
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, err
		}
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML overlays data on cfg, rejecting unknown fields
func (c *Config) decodeYAML(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := env(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := env(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := env(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := env(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CODEC", &c.Codec)

	duration("REDIS_DIAL_TIMEOUT", &c.Redis.DialTimeout)
	boolean("REDIS_VERIFY_ON_OPEN", &c.Redis.VerifyOnOpen)
	integer("REDIS_POOL_SIZE", &c.Redis.PoolSize)

	str("HOSTLINK_LISTEN", &c.HostLink.ListenAddress)
	str("HOSTLINK_HOST", &c.HostLink.HostAddress)
	integer("HOSTLINK_MAX_MESSAGE_SIZE", &c.HostLink.MaxMessageSize)

	boolean("HTTP_ENABLED", &c.HTTP.Enabled)
	str("HTTP_LISTEN", &c.HTTP.ListenAddress)
	str("HTTP_SECRET_KEY", &c.HTTP.SecretKey)
	str("HTTP_ADMIN_KEY", &c.HTTP.AdminKey)
	boolean("HTTP_NO_AUTH", &c.HTTP.NoAuth)
	duration("HTTP_TOKEN_TTL", &c.HTTP.TokenTTL)

	return errors.Join(errs...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return err
	}

	store := c.RedisStore()
	if err := store.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	link := c.HostLinkConfig()
	if err := link.Validate(); err != nil {
		return fmt.Errorf("hostlink: %w", err)
	}
	if c.HTTP.Enabled {
		gateway := c.HTTPServer()
		if err := gateway.Validate(); err != nil {
			return fmt.Errorf("http: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Bindings))
	for _, b := range c.Bindings {
		if b.Actor == "" {
			return errors.New("bindings: actor cannot be empty")
		}
		if seen[b.Actor] {
			return fmt.Errorf("bindings: actor %q listed twice", b.Actor)
		}
		seen[b.Actor] = true
	}
	return nil
}

// RedisStore returns the store connector configuration
func (c *Config) RedisStore() redisstore.Config {
	return redisstore.Config{
		DialTimeout:  c.Redis.DialTimeout,
		VerifyOnOpen: c.Redis.VerifyOnOpen,
		PoolSize:     c.Redis.PoolSize,
	}
}

// HostLinkConfig returns the host link configuration
func (c *Config) HostLinkConfig() hostlink.Config {
	return hostlink.Config{
		ListenAddress:  c.HostLink.ListenAddress,
		HostAddress:    c.HostLink.HostAddress,
		MaxMessageSize: c.HostLink.MaxMessageSize,
	}
}

// HTTPServer returns the HTTP gateway configuration
func (c *Config) HTTPServer() httpapi.Config {
	return httpapi.Config{
		ListenAddress: c.HTTP.ListenAddress,
		SecretKey:     c.HTTP.SecretKey,
		AdminKey:      c.HTTP.AdminKey,
		NoAuth:        c.HTTP.NoAuth,
		TokenTTL:      c.HTTP.TokenTTL,
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Logger builds a slog.Logger writing to w
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
