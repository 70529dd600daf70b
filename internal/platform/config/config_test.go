package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestApplyEnv_OverridesDefaults(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envFrom(map[string]string{
		"PORT":                     "9090",
		"TICK_INTERVAL":            "2s",
		"DEFAULT_POSTPONE_MINUTES": "30",
		"SQLITE_PATH":              "/tmp/meds.db",
		"NOTIFY_WEBHOOK_URL":       "http://hooks.local/alarm",
	}))
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %q", cfg.Addr)
	}
	if cfg.Scheduler.TickInterval != 2*time.Second {
		t.Fatalf("expected tick 2s, got %v", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.DefaultPostponeMinutes != 30 {
		t.Fatalf("expected postpone 30, got %d", cfg.Scheduler.DefaultPostponeMinutes)
	}
	if cfg.StorageDriver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %s", cfg.StorageDriver())
	}
	if cfg.Notify.WebhookURL != "http://hooks.local/alarm" {
		t.Fatalf("unexpected webhook url %q", cfg.Notify.WebhookURL)
	}
}

func TestApplyEnv_RejectsBadDuration(t *testing.T) {
	cfg := Default()
	if err := cfg.applyEnv(envFrom(map[string]string{"REPEAT_INTERVAL": "soon"})); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
addr: ":7000"
storage:
  badger_path: /var/lib/meds
scheduler:
  tick_interval: 5s
  repeat_interval: 15s
notify:
  title: Hora do remédio
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("expected :7000, got %q", cfg.Addr)
	}
	if cfg.Scheduler.TickInterval != 5*time.Second || cfg.Scheduler.RepeatInterval != 15*time.Second {
		t.Fatalf("unexpected scheduler %+v", cfg.Scheduler)
	}
	// Lo no especificado conserva el default.
	if cfg.Scheduler.DefaultPostponeMinutes != 10 {
		t.Fatalf("expected default postpone 10, got %d", cfg.Scheduler.DefaultPostponeMinutes)
	}
	if cfg.StorageDriver() != DriverBadger {
		t.Fatalf("expected badger driver, got %s", cfg.StorageDriver())
	}
	if cfg.Notify.Title != "Hora do remédio" {
		t.Fatalf("unexpected title %q", cfg.Notify.Title)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero tick", mutate: func(c *Config) { c.Scheduler.TickInterval = 0 }},
		{name: "zero repeat", mutate: func(c *Config) { c.Scheduler.RepeatInterval = 0 }},
		{name: "negative recheck", mutate: func(c *Config) { c.Scheduler.RecheckDelay = -time.Second }},
		{name: "zero postpone", mutate: func(c *Config) { c.Scheduler.DefaultPostponeMinutes = 0 }},
		{name: "empty addr", mutate: func(c *Config) { c.Addr = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}
