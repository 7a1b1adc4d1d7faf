// Package config loads the YAML configuration file for the hmacauth command.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/golden-vcr/hmac-auth/db"
	"github.com/golden-vcr/hmac-auth/hmac"
	"github.com/golden-vcr/hmac-auth/rmq"
)

// Environment variables that, if set, override secrets in the config file
const (
	EnvPostgresPassword = "HMACAUTH_PG_PASSWORD"
	EnvAMQPPassword     = "HMACAUTH_AMQP_PASSWORD"
)

const (
	KeyStoreStatic   = "static"
	KeyStorePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	KeyStore KeyStoreConfig `yaml:"keystore"`
	Policy   PolicyConfig   `yaml:"policy"`
	Audit    AuditConfig    `yaml:"audit"`
}

type ServerConfig struct {
	BindAddr   string `yaml:"bind_addr"`
	ListenPort int    `yaml:"listen_port"`
	// AdminPort serves /healthz, /metrics and /decisions; 0 disables it
	AdminPort int `yaml:"admin_port"`
	// Upstream is the base URL that authenticated requests are proxied to
	Upstream string `yaml:"upstream"`
	// PrincipalHeader carries the authenticated principal to the upstream
	PrincipalHeader string `yaml:"principal_header"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	SkewWindow time.Duration `yaml:"skew_window"`
}

type KeyStoreConfig struct {
	Provider string         `yaml:"provider"`
	File     string         `yaml:"file"`
	Postgres PostgresConfig `yaml:"postgres"`
	Cache    CacheConfig    `yaml:"cache"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DBName   string `yaml:"dbname"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// URI returns the postgres:// connection string for c
func (c PostgresConfig) URI() string {
	return db.FormatConnectionString(c.Host, c.Port, c.DBName, c.User, c.Password, c.SSLMode)
}

// CacheConfig configures the LRU cache in front of the postgres key store; a Size of 0
// disables it. The cache is not told about revocations, so a key revoked with
// 'hmacauth keys revoke' keeps authenticating against a running server for up to TTL.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// PolicyConfig names a Casbin CSV policy file; if File is empty, every authenticated
// request is allowed
type PolicyConfig struct {
	File string `yaml:"file"`
}

type AuditConfig struct {
	Enabled    bool                 `yaml:"enabled"`
	AMQP       AMQPConfig           `yaml:"amqp"`
	Queue      rmq.QueueDeclaration `yaml:"queue"`
	BufferSize int                  `yaml:"buffer_size"`
}

type AMQPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	VHost    string `yaml:"vhost"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// URI returns the amqp:// connection string for c
func (c AMQPConfig) URI() string {
	return rmq.FormatConnectionString(c.Host, c.Port, c.VHost, c.User, c.Password)
}

// Default returns the configuration used for any value not set in the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenPort:      5000,
			AdminPort:       5001,
			PrincipalHeader: "X-Auth-Principal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			SkewWindow: hmac.DefaultSkewWindow,
		},
		KeyStore: KeyStoreConfig{
			Provider: KeyStoreStatic,
			File:     "keys.yaml",
			Postgres: PostgresConfig{
				Host:   "localhost",
				Port:   5432,
				DBName: "postgres",
				User:   "postgres",
			},
			Cache: CacheConfig{
				Size: 1024,
				TTL:  time.Minute,
			},
		},
		Audit: AuditConfig{
			AMQP: AMQPConfig{
				Host:  "localhost",
				Port:  5672,
				VHost: "/",
				User:  "guest",
			},
			Queue: rmq.QueueDeclaration{
				Name: "hmacauth-decisions",
				Type: rmq.QueueTypeFanout,
			},
			BufferSize: 1024,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment overrides,
// and validates the result. If path is empty, only defaults and environment are used.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvPostgresPassword); v != "" {
		c.KeyStore.Postgres.Password = v
	}
	if v := os.Getenv(EnvAMQPPassword); v != "" {
		c.Audit.AMQP.Password = v
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate reports the first problem found with c
func (c *Config) Validate() error {
	if c.Server.ListenPort <= 0 || c.Server.ListenPort > 65535 {
		return fmt.Errorf("server.listen_port must be between 1 and 65535")
	}
	if c.Server.AdminPort < 0 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("server.admin_port must be between 0 and 65535")
	}
	if c.Server.AdminPort != 0 && c.Server.AdminPort == c.Server.ListenPort {
		return fmt.Errorf("server.admin_port must differ from server.listen_port")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level '%s'", c.Logging.Level)
	}
	if c.Auth.SkewWindow <= 0 {
		return fmt.Errorf("auth.skew_window must be positive")
	}
	switch c.KeyStore.Provider {
	case KeyStoreStatic:
		if c.KeyStore.File == "" {
			return fmt.Errorf("keystore.file is required for the static provider")
		}
	case KeyStorePostgres:
		if c.KeyStore.Postgres.Host == "" || c.KeyStore.Postgres.DBName == "" {
			return fmt.Errorf("keystore.postgres.host and keystore.postgres.dbname are required")
		}
		if c.KeyStore.Cache.Size > 0 && c.KeyStore.Cache.TTL <= 0 {
			return fmt.Errorf("keystore.cache.ttl must be positive when caching is enabled")
		}
	default:
		return fmt.Errorf("unknown keystore.provider '%s'", c.KeyStore.Provider)
	}
	if c.Audit.Enabled {
		if c.Audit.Queue.Name == "" {
			return fmt.Errorf("audit.queue.name is required")
		}
		if c.Audit.Queue.Type != rmq.QueueTypeFanout && c.Audit.Queue.Type != rmq.QueueTypeWork {
			return fmt.Errorf("audit.queue.type must be '%s' or '%s'", rmq.QueueTypeFanout, rmq.QueueTypeWork)
		}
		if c.Audit.BufferSize <= 0 {
			return fmt.Errorf("audit.buffer_size must be positive")
		}
	}
	return nil
}
