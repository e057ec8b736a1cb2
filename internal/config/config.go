package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DomainAuthors = "authors"
	DomainBooks   = "books"
)

// Config is the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Authors   AuthorsConfig   `mapstructure:"authors"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type AppConfig struct {
	Name    string   `mapstructure:"name"`
	Domains []string `mapstructure:"domains"` // authors, books
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// AuthorsConfig points the book side at the authors API. An empty BaseURL
// means the authors API served by this process.
type AuthorsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	RPS     int           `mapstructure:"rps"`
}

// BrokerConfig configures change notifications. An empty URL with Embedded
// off sends notifications to the log only.
type BrokerConfig struct {
	URL            string        `mapstructure:"url"`
	ClientID       string        `mapstructure:"client_id"`
	Topic          string        `mapstructure:"topic"`
	QoS            int           `mapstructure:"qos"`
	Retain         bool          `mapstructure:"retain"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Embedded       bool          `mapstructure:"embedded"`
	EmbeddedAddr   string        `mapstructure:"embedded_addr"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RPS     int  `mapstructure:"rps"`
	Burst   int  `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HasDomain reports whether the named resource group should be served.
func (c *Config) HasDomain(name string) bool {
	for _, d := range c.App.Domains {
		if d == name {
			return true
		}
	}
	return false
}

// BrokerURL returns the URL notifications are published to, taking the
// embedded broker into account.
func (c *Config) BrokerURL() string {
	if c.Broker.URL == "" && c.Broker.Embedded {
		addr := c.Broker.EmbeddedAddr
		if strings.HasPrefix(addr, ":") {
			addr = "127.0.0.1" + addr
		}
		return "tcp://" + addr
	}
	return c.Broker.URL
}

// Load reads .env.local, then an optional config file, then BFF_* environment
// variables on top of the defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(c.App.Domains) == 0 {
		errs = append(errs, errors.New("app.domains must name at least one domain"))
	}
	for _, d := range c.App.Domains {
		if d != DomainAuthors && d != DomainBooks {
			errs = append(errs, fmt.Errorf("app.domains: unknown domain %q", d))
		}
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		errs = append(errs, fmt.Errorf("broker.qos must be 0, 1 or 2, got %d", c.Broker.QoS))
	}
	if c.Broker.Topic == "" {
		errs = append(errs, errors.New("broker.topic is required"))
	}
	if c.Broker.Embedded && c.Broker.EmbeddedAddr == "" {
		errs = append(errs, errors.New("broker.embedded_addr is required when broker.embedded is set"))
	}
	if c.HasDomain(DomainBooks) && !c.HasDomain(DomainAuthors) && c.Authors.BaseURL == "" {
		errs = append(errs, errors.New("authors.base_url is required when the authors domain is not served"))
	}
	if c.Authors.RPS < 0 {
		errs = append(errs, errors.New("authors.rps must not be negative"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bookbff")
	v.SetDefault("app.domains", []string{DomainAuthors, DomainBooks})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("authors.base_url", "")
	v.SetDefault("authors.timeout", "3s")
	v.SetDefault("authors.rps", 0)

	v.SetDefault("broker.url", "")
	v.SetDefault("broker.client_id", "bookbff")
	v.SetDefault("broker.topic", "bff/notifications")
	v.SetDefault("broker.qos", 1)
	v.SetDefault("broker.retain", false)
	v.SetDefault("broker.publish_timeout", "2s")
	v.SetDefault("broker.connect_timeout", "5s")
	v.SetDefault("broker.embedded", false)
	v.SetDefault("broker.embedded_addr", ":1883")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}
