package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "db"
  name: "memorybook"
  user: "mb"
  password: "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Vision.MaxFacesPerPhoto != 10 {
		t.Errorf("max faces = %d, want 10", cfg.Vision.MaxFacesPerPhoto)
	}
	if cfg.Vision.MatchFloor != 80 {
		t.Errorf("match floor = %v, want 80", cfg.Vision.MatchFloor)
	}
	if cfg.Vision.AutoAssignThreshold != 95 {
		t.Errorf("auto-assign threshold = %v, want 95", cfg.Vision.AutoAssignThreshold)
	}
	if cfg.Vision.MinFaceRatio != 0.03 {
		t.Errorf("min face ratio = %v, want 0.03", cfg.Vision.MinFaceRatio)
	}
	if cfg.Vision.CollectionPrefix != "memorybook-user-" {
		t.Errorf("collection prefix = %q", cfg.Vision.CollectionPrefix)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadDSN(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "db"
  port: 5433
  name: "memorybook"
  user: "mb"
  password: "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := "postgres://mb:secret@db:5433/memorybook?sslmode=disable"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  api_key: "from-file"
database:
  host: "file-host"
`)

	t.Setenv("MB_SERVER_PORT", "9090")
	t.Setenv("MB_API_KEY", "from-env")
	t.Setenv("MB_DB_HOST", "env-host")
	t.Setenv("MB_AWS_REGION", "eu-west-1")
	t.Setenv("MB_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.Server.APIKey)
	}
	if cfg.Database.Host != "env-host" {
		t.Errorf("db host = %q, want env value", cfg.Database.Host)
	}
	if cfg.Vision.Region != "eu-west-1" {
		t.Errorf("region = %q, want eu-west-1", cfg.Vision.Region)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("openai key = %q, want sk-test", cfg.OpenAI.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
