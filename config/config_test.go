package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dumps.Dir != "dumps" {
		t.Errorf("expected default dumps dir dumps, got %s", cfg.Dumps.Dir)
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("expected default data dir data, got %s", cfg.Data.Dir)
	}
	if cfg.Build.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Build.Workers)
	}
	if !cfg.Build.GlobalStream {
		t.Error("expected global stream enabled by default")
	}
	if cfg.NATS.SubjectPrefix != "wikidated.revisions" {
		t.Errorf("expected default subject prefix wikidated.revisions, got %s", cfg.NATS.SubjectPrefix)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing dumps dir",
			modify:  func(c *Config) { c.Dumps.Dir = "" },
			wantErr: true,
		},
		{
			name:    "missing data dir",
			modify:  func(c *Config) { c.Data.Dir = "" },
			wantErr: true,
		},
		{
			name:    "negative workers",
			modify:  func(c *Config) { c.Build.Workers = -1 },
			wantErr: true,
		},
		{
			name:    "valid pinned version",
			modify:  func(c *Config) { c.Data.Version = "20210401" },
			wantErr: false,
		},
		{
			name:    "malformed version",
			modify:  func(c *Config) { c.Data.Version = "2021-04-01" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
dumps:
  dir: "/mnt/dumps"
data:
  dir: "/mnt/data"
  version: "20210401"
build:
  workers: 8
  continue_on_error: true
metrics:
  addr: ":9090"
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Dumps.Dir != "/mnt/dumps" {
		t.Errorf("expected dumps dir /mnt/dumps, got %s", cfg.Dumps.Dir)
	}
	if cfg.Data.Dir != "/mnt/data" {
		t.Errorf("expected data dir /mnt/data, got %s", cfg.Data.Dir)
	}
	if cfg.Data.Version != "20210401" {
		t.Errorf("expected version 20210401, got %s", cfg.Data.Version)
	}
	if cfg.Build.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Build.Workers)
	}
	if !cfg.Build.ContinueOnError {
		t.Error("expected continue_on_error true")
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("expected metrics addr :9090, got %s", cfg.Metrics.Addr)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	// Subject prefix should keep its default since the file didn't set it
	if cfg.NATS.SubjectPrefix != "wikidated.revisions" {
		t.Errorf("expected subject prefix to remain default, got %s", cfg.NATS.SubjectPrefix)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Dumps: DumpsConfig{
			Dir: "/override/dumps",
		},
		Build: BuildConfig{
			Workers: 16,
		},
	}

	base.Merge(override)

	if base.Dumps.Dir != "/override/dumps" {
		t.Errorf("expected dumps dir /override/dumps, got %s", base.Dumps.Dir)
	}
	if base.Build.Workers != 16 {
		t.Errorf("expected workers 16, got %d", base.Build.Workers)
	}
	// Data dir should remain from base since override didn't set it
	if base.Data.Dir != "data" {
		t.Errorf("expected data dir to remain default, got %s", base.Data.Dir)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Dumps.Dir = "/saved/dumps"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Dumps.Dir != "/saved/dumps" {
		t.Errorf("expected dumps dir /saved/dumps, got %s", loaded.Dumps.Dir)
	}
}
