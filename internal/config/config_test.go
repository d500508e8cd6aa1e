package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "collector.yml")

	yamlContent := `
ingressPort: 27600
skipAuth: true
logBots: true
game: tf
database:
  host: db.internal
  port: 5433
  name: telemetry_test
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IngressPort != 27600 {
		t.Errorf("IngressPort = %d, want 27600", cfg.IngressPort)
	}
	if !cfg.SkipAuth {
		t.Errorf("SkipAuth = false, want true")
	}
	if !cfg.LogBots {
		t.Errorf("LogBots = false, want true")
	}
	if cfg.Game != "tf" {
		t.Errorf("Game = %q, want tf", cfg.Game)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("Database = %+v, unexpected", cfg.Database)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, unexpected", cfg.Logging)
	}
}

func TestLoad_NoFile_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IngressPort != 27500 {
		t.Errorf("IngressPort default = %d, want 27500", cfg.IngressPort)
	}
	if cfg.Game != "cstrike" {
		t.Errorf("Game default = %q, want cstrike", cfg.Game)
	}
}

func TestValidate_RequiresDatabaseWhenNotSkippingAuth(t *testing.T) {
	cfg := &Config{IngressPort: 27500, SkipAuth: false}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when database host is empty and skipAuth is false")
	}

	cfg.Database.Host = "localhost"
	cfg.Database.Name = "telemetry"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_SkipAuthAllowsEmptyDatabase(t *testing.T) {
	cfg := &Config{IngressPort: 27500, SkipAuth: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error in dev mode: %v", err)
	}
}

func TestGenerateExample(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "collector.yml")

	if err := GenerateExample(path); err != nil {
		t.Fatalf("GenerateExample() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read generated config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("generated config is empty")
	}
}
