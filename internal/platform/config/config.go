package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config agrupa todo lo configurable del proceso.
// Orden de precedencia: defaults -> archivo YAML (CONFIG_FILE) -> env vars.
type Config struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"api_token"`

	Log       Log       `yaml:"log"`
	Storage   Storage   `yaml:"storage"`
	Scheduler Scheduler `yaml:"scheduler"`
	Notify    Notify    `yaml:"notify"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

type Storage struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	SQLitePath  string `yaml:"sqlite_path"`
	BadgerPath  string `yaml:"badger_path"`
}

type Scheduler struct {
	TickInterval           time.Duration `yaml:"tick_interval"`
	RepeatInterval         time.Duration `yaml:"repeat_interval"`
	RecheckDelay           time.Duration `yaml:"recheck_delay"`
	DefaultPostponeMinutes int           `yaml:"default_postpone_minutes"`
}

type Notify struct {
	Title          string        `yaml:"title"`
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookToken   string        `yaml:"webhook_token"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
}

// Driver de almacenamiento resuelto.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverBadger   Driver = "badger"
)

func Default() Config {
	return Config{
		Addr: ":8080",
		Log: Log{
			Level:  "info",
			Format: "text",
			App:    "med-reminder",
		},
		Scheduler: Scheduler{
			TickInterval:           10 * time.Second,
			RepeatInterval:         10 * time.Second,
			RecheckDelay:           time.Second,
			DefaultPostponeMinutes: 10,
		},
		Notify: Notify{
			Title:          "Medication reminder",
			WebhookTimeout: 5 * time.Second,
		},
	}
}

// Load arma la config desde CONFIG_FILE (opcional) y el entorno.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if v := env("ADDR"); v != "" {
		c.Addr = v
	}
	if v := env("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := env("API_TOKEN"); v != "" {
		c.APIToken = v
	}

	if v := env("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := env("APP_NAME"); v != "" {
		c.Log.App = v
	}

	if v := env("DB_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := env("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := env("BADGER_PATH"); v != "" {
		c.Storage.BadgerPath = v
	}

	for key, dst := range map[string]*time.Duration{
		"TICK_INTERVAL":   &c.Scheduler.TickInterval,
		"REPEAT_INTERVAL": &c.Scheduler.RepeatInterval,
		"RECHECK_DELAY":   &c.Scheduler.RecheckDelay,
		"NOTIFY_TIMEOUT":  &c.Notify.WebhookTimeout,
	} {
		v := env(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	if v := env("DEFAULT_POSTPONE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DEFAULT_POSTPONE_MINUTES: %w", err)
		}
		c.Scheduler.DefaultPostponeMinutes = n
	}

	if v := env("NOTIFY_WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := env("NOTIFY_WEBHOOK_TOKEN"); v != "" {
		c.Notify.WebhookToken = v
	}
	if v := env("NOTIFY_TITLE"); v != "" {
		c.Notify.Title = v
	}
	return nil
}

func (c Config) Validate() error {
	s := c.Scheduler
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return errors.New("config: addr is required")
	case s.TickInterval <= 0:
		return errors.New("config: tick_interval must be positive")
	case s.RepeatInterval <= 0:
		return errors.New("config: repeat_interval must be positive")
	case s.RecheckDelay < 0:
		return errors.New("config: recheck_delay must be non-negative")
	case s.DefaultPostponeMinutes <= 0:
		return errors.New("config: default_postpone_minutes must be positive")
	}
	return nil
}

// StorageDriver decide qué adapter usar: badger > sqlite > postgres > memory.
func (c Config) StorageDriver() Driver {
	switch {
	case c.Storage.BadgerPath != "":
		return DriverBadger
	case c.Storage.SQLitePath != "":
		return DriverSQLite
	case c.Storage.PostgresDSN != "":
		return DriverPostgres
	default:
		return DriverMemory
	}
}
