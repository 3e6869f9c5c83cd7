package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Upload   UploadConfig   `yaml:"upload"`
	Query    QueryConfig    `yaml:"query"`
}

type HTTPConfig struct {
	Address             string   `yaml:"address"`
	DocsDir             string   `yaml:"docs_dir"`
	CORSOrigins         []string `yaml:"cors_origins"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
	// Route the status gate redirects denied callers to.
	StatusFallbackPath string `yaml:"status_fallback_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret       string         `yaml:"jwt_secret"`
	TokenTTLMinutes int            `yaml:"token_ttl_minutes"`
	BootstrapAdmin  BootstrapAdmin `yaml:"bootstrap_admin"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// BootstrapAdmin is created at startup when no credential exists for Email.
type BootstrapAdmin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type UploadConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Preset         string `yaml:"preset"`
	CloudName      string `yaml:"cloud_name"`
	MaxBytes       int64  `yaml:"max_bytes"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type QueryConfig struct {
	StaleSeconds int `yaml:"stale_seconds"`
	GCSeconds    int `yaml:"gc_seconds"`
	SweepSeconds int `yaml:"sweep_seconds"`
}

func (q QueryConfig) StaleTime() time.Duration {
	return time.Duration(q.StaleSeconds) * time.Second
}

func (q QueryConfig) GCTime() time.Duration {
	return time.Duration(q.GCSeconds) * time.Second
}

func (q QueryConfig) SweepInterval() time.Duration {
	return time.Duration(q.SweepSeconds) * time.Second
}

// LoadConfig reads the YAML file at path. ${VAR} references are expanded from the environment
// before parsing, so secrets can stay out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeoutSeconds == 0 {
		c.HTTP.ReadTimeoutSeconds = 30
	}
	if c.HTTP.StatusFallbackPath == "" {
		c.HTTP.StatusFallbackPath = "/dashboard"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMongo
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "transit"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "transit-notifications"
	}
	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 24 * 60
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 5 * 1024 * 1024
	}
	if c.Upload.TimeoutSeconds == 0 {
		c.Upload.TimeoutSeconds = 30
	}
	if c.Query.StaleSeconds == 0 {
		c.Query.StaleSeconds = 60
	}
	if c.Query.GCSeconds == 0 {
		c.Query.GCSeconds = 5 * 60
	}
	if c.Query.SweepSeconds == 0 {
		c.Query.SweepSeconds = 60
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required for the mongo driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("database.host is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Query.GCSeconds < c.Query.StaleSeconds {
		return errors.New("query.gc_seconds must not be shorter than query.stale_seconds")
	}
	return nil
}
