package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database          Database          `yaml:"database"`
	Archive           Archive           `yaml:"archive"`
	Server            Server            `yaml:"server"`
	Logging           Logging           `yaml:"logging"`
	BenchmarkSettings BenchmarkSettings `yaml:"benchmark_settings"`
}

type Database struct {
	Postgres string `yaml:"postgres"`
	MaxConns int32  `yaml:"max_conns"`
}

// Archive selects where run history is recorded. Backend is one of
// "none", "mongo" or "mysql".
type Archive struct {
	Backend       string `yaml:"backend"`
	Mongo         string `yaml:"mongo"`
	MongoDatabase string `yaml:"mongo_database"`
	MySQL         string `yaml:"mysql"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type BenchmarkSettings struct {
	DefaultDuration    string `yaml:"default_duration"`
	DefaultConcurrency int    `yaml:"default_concurrency"`
}

const DefaultPostgresDSN = "postgres://postgres@localhost:5432/interview_practice?sslmode=disable"

func Default() *Config {
	return &Config{
		Database: Database{
			Postgres: DefaultPostgresDSN,
			MaxConns: 8,
		},
		Archive: Archive{
			Backend:       "none",
			Mongo:         "mongodb://localhost:27017",
			MongoDatabase: "interview_practice",
		},
		Server:  Server{Addr: ":8080"},
		Logging: Logging{Level: "info"},
		BenchmarkSettings: BenchmarkSettings{
			DefaultDuration:    "10s",
			DefaultConcurrency: 4,
		},
	}
}

// LoadConfig reads path on top of the defaults and then applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv honours DATABASE_URL first, then the individual DB_* variables
// composed into the existing DSN.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if dsn, ok := lookup("DATABASE_URL"); ok && dsn != "" {
		c.Database.Postgres = dsn
		return nil
	}

	keys := []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD"}
	set := false
	for _, k := range keys {
		if _, ok := lookup(k); ok {
			set = true
			break
		}
	}
	if !set {
		return nil
	}

	u, err := url.Parse(c.Database.Postgres)
	if err != nil {
		return fmt.Errorf("parse database dsn: %w", err)
	}
	host, port := u.Hostname(), u.Port()
	if v, ok := lookup("DB_HOST"); ok {
		host = v
	}
	if v, ok := lookup("DB_PORT"); ok {
		port = v
	}
	if port == "" {
		port = "5432"
	}
	u.Host = net.JoinHostPort(host, port)
	if v, ok := lookup("DB_NAME"); ok {
		u.Path = "/" + v
	}

	user := u.User.Username()
	pass, hasPass := u.User.Password()
	if v, ok := lookup("DB_USER"); ok {
		user = v
	}
	if v, ok := lookup("DB_PASSWORD"); ok {
		pass, hasPass = v, v != ""
	}
	switch {
	case user == "":
		u.User = nil
	case hasPass:
		u.User = url.UserPassword(user, pass)
	default:
		u.User = url.User(user)
	}

	c.Database.Postgres = u.String()
	return nil
}

func (c *Config) Validate() error {
	if c.Database.Postgres == "" {
		return errors.New("config: database.postgres is required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("config: database.max_conns must be positive, got %d", c.Database.MaxConns)
	}
	switch c.Archive.Backend {
	case "", "none":
	case "mongo":
		if c.Archive.Mongo == "" {
			return errors.New("config: archive.mongo is required for the mongo backend")
		}
	case "mysql":
		if c.Archive.MySQL == "" {
			return errors.New("config: archive.mysql is required for the mysql backend")
		}
	default:
		return fmt.Errorf("config: unknown archive backend %q", c.Archive.Backend)
	}
	if _, err := c.BenchmarkSettings.Duration(); err != nil {
		return err
	}
	return nil
}

func (b BenchmarkSettings) Duration() (time.Duration, error) {
	if b.DefaultDuration == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(b.DefaultDuration)
	if err != nil {
		return 0, fmt.Errorf("config: benchmark_settings.default_duration: %w", err)
	}
	return d, nil
}
