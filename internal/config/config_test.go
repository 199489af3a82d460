package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsAndDerivedValues(t *testing.T) {
	t.Setenv(configDirEnvKey, t.TempDir())
	t.Setenv(dbPathEnvKey, "")
	t.Setenv(apiURLEnvKey, "")
	t.Setenv(mediaRootEnvKey, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api_url, got %q", cfg.APIURL)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.DBPath == "" {
		t.Fatal("expected derived db path")
	}
	if cfg.Media.Root == "" || !strings.Contains(cfg.Media.Root, filepath.Join(".cadenza", "media")) {
		t.Fatalf("expected derived media root, got %q", cfg.Media.Root)
	}
	if cfg.Media.BaseURL != cfg.APIURL {
		t.Fatalf("expected media base_url to default to api_url, got %q", cfg.Media.BaseURL)
	}
	if cfg.Media.MaxUploadBytes != DefaultMediaMaxUploadBytes {
		t.Fatalf("unexpected max upload bytes: %d", cfg.Media.MaxUploadBytes)
	}
}

func TestLoadFromFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
api_url = "http://127.0.0.1:9901"
port = 9901
db_path = "` + filepath.ToSlash(filepath.Join(dir, "data.db")) + `"
log_level = "debug"

[media]
base_url = "http://media.internal"
max_upload_bytes = 1024
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configDirEnvKey, dir)
	t.Setenv(dbPathEnvKey, "")
	t.Setenv(apiURLEnvKey, "")
	t.Setenv(mediaRootEnvKey, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9901" {
		t.Fatalf("unexpected api_url: %q", cfg.APIURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log_level: %q", cfg.LogLevel)
	}
	if cfg.Media.BaseURL != "http://media.internal" {
		t.Fatalf("unexpected media base_url: %q", cfg.Media.BaseURL)
	}
	if cfg.Media.MaxUploadBytes != 1024 {
		t.Fatalf("unexpected max_upload_bytes: %d", cfg.Media.MaxUploadBytes)
	}

	t.Setenv(dbPathEnvKey, filepath.Join(dir, "env.db"))
	t.Setenv(mediaRootEnvKey, filepath.Join(dir, "envmedia"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "env.db") {
		t.Fatalf("env db path override lost: %q", cfg.DBPath)
	}
	if cfg.Media.Root != filepath.Join(dir, "envmedia") {
		t.Fatalf("env media root override lost: %q", cfg.Media.Root)
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)

	if err := SetKey(path, "api_url", "http://127.0.0.1:7777"); err != nil {
		t.Fatalf("set api_url: %v", err)
	}
	if err := SetKey(path, "media.max_upload_bytes", "2048"); err != nil {
		t.Fatalf("set media.max_upload_bytes: %v", err)
	}
	if err := SetKey(path, "bogus", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if err := SetKey(path, "port", "not-a-port"); err == nil {
		t.Fatal("expected error for invalid port")
	}

	t.Setenv(configDirEnvKey, dir)
	t.Setenv(dbPathEnvKey, "")
	t.Setenv(apiURLEnvKey, "")
	t.Setenv(mediaRootEnvKey, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:7777" {
		t.Fatalf("unexpected api_url after set: %q", cfg.APIURL)
	}
	if cfg.Media.MaxUploadBytes != 2048 {
		t.Fatalf("unexpected max_upload_bytes after set: %d", cfg.Media.MaxUploadBytes)
	}
}
