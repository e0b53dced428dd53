package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/faucetdb/sqlcatalog/internal/ident"
)

// FileName is the configuration file looked up when --config is not given.
const FileName = "sqlcatalog.yaml"

// EnvPrefix prefixes environment overrides: SQLCATALOG_CONNECTION_DSN
// sets connection.dsn.
const EnvPrefix = "SQLCATALOG"

// Config represents the sqlcatalog configuration file.
type Config struct {
	Connection    ConnectionConfig    `yaml:"connection" mapstructure:"connection"`
	Introspection IntrospectionConfig `yaml:"introspection" mapstructure:"introspection"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
}

// ConnectionConfig controls the catalog connection pool.
type ConnectionConfig struct {
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// IntrospectionConfig tunes a run. Concurrency bounds in-flight detail
// queries per reader and should not exceed MaxOpenConns.
type IntrospectionConfig struct {
	Concurrency  int           `yaml:"concurrency" mapstructure:"concurrency"`
	QueryTimeout time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
	Target       string        `yaml:"target" mapstructure:"target"`
}

// OutputConfig controls where `sqlcatalog introspect` writes the model.
// An empty Path means stdout.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig controls the read-only HTTP view.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	RateLimit       int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// Default returns a Config pre-filled with sensible defaults. The DSN is
// left empty and must be supplied.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			MaxOpenConns:    8,
			MaxIdleConns:    4,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		Introspection: IntrospectionConfig{
			Concurrency:  4,
			QueryTimeout: 30 * time.Second,
			Target:       "go",
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8090,
			RateLimit:       120,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
	}
}

// SetDefaults registers every key of Default with v, which also makes each
// key visible to AutomaticEnv during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("connection.dsn", d.Connection.DSN)
	v.SetDefault("connection.max_open_conns", d.Connection.MaxOpenConns)
	v.SetDefault("connection.max_idle_conns", d.Connection.MaxIdleConns)
	v.SetDefault("connection.conn_max_lifetime", d.Connection.ConnMaxLifetime)
	v.SetDefault("connection.conn_max_idle_time", d.Connection.ConnMaxIdleTime)
	v.SetDefault("introspection.concurrency", d.Introspection.Concurrency)
	v.SetDefault("introspection.query_timeout", d.Introspection.QueryTimeout)
	v.SetDefault("introspection.target", d.Introspection.Target)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
}

// BindEnv makes SQLCATALOG_SECTION_KEY override section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Find returns the first existing config file among ./sqlcatalog.yaml and
// $HOME/.sqlcatalog/sqlcatalog.yaml, or "" when there is none.
func Find() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".sqlcatalog", FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ReadFile merges a YAML configuration file into v. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func ReadFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(content)); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// FromViper decodes the effective configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load reads path on top of the defaults, honouring SQLCATALOG_*
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate reports the first setting that would prevent a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Connection.DSN) == "" {
		return ErrNoDSN
	}
	if c.Introspection.Concurrency < 1 {
		return fmt.Errorf("%w: introspection.concurrency must be at least 1, got %d", ErrInvalid, c.Introspection.Concurrency)
	}
	if c.Introspection.QueryTimeout <= 0 {
		return fmt.Errorf("%w: introspection.query_timeout must be positive", ErrInvalid)
	}
	if _, err := ident.Lookup(c.Introspection.Target); err != nil {
		return fmt.Errorf("%w: introspection.target: %w", ErrInvalid, err)
	}
	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: output.format must be json or yaml, got %q", ErrInvalid, c.Output.Format)
	}
	return nil
}

// WriteDefault writes the default configuration to a YAML file. The file
// will hold a DSN, so it is created readable by the owner only.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
