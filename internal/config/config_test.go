package config

import (
	"os"
	"testing"
)

const sampleConfig = `
home_assistant:
  url: http://homeassistant.local:8123
  token: long-lived-token
server:
  transport: http
  host: 127.0.0.1
  port: "9090"
log:
  level: debug
history:
  path: /tmp/invocations.db
`

// TestLoad verifies that Load unmarshals all sections from the file named
// by CONFIG_PATH.
func TestLoad(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HomeAssistant.URL != "http://homeassistant.local:8123" {
		t.Fatalf("unexpected hub url: %s", cfg.HomeAssistant.URL)
	}
	if cfg.HomeAssistant.Token != "long-lived-token" {
		t.Fatalf("unexpected token: %s", cfg.HomeAssistant.Token)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Port != "9090" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
	if cfg.History.Path != "/tmp/invocations.db" {
		t.Fatalf("unexpected history path: %s", cfg.History.Path)
	}
}

// TestLoad_Defaults verifies defaults when optional sections are omitted.
func TestLoad_Defaults(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString("home_assistant:\n  url: http://hub\n  token: x\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Transport != "stdio" {
		t.Fatalf("expected stdio default, got %s", cfg.Server.Transport)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected info default, got %s", cfg.Log.Level)
	}
}
