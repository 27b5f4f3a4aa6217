package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	c, err := Load(NewViper())
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL != "http://localhost:8000" || c.CSRFCookie != "csrftoken" || c.Timeout != 10*time.Second {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	cfg := "base-url: http://menu.example.test/\ntimeout: 3s\nlog-level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "themenu.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THEMENU_LOG_LEVEL", "info")

	c, err := Load(NewViper())
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL != "http://menu.example.test" {
		t.Errorf("base url = %q", c.BaseURL)
	}
	if c.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", c.Timeout)
	}
	if c.LogLevel != "info" {
		t.Errorf("log level = %q, env should win", c.LogLevel)
	}
}

func TestRejectsNonPositiveTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("THEMENU_TIMEOUT", "0s")
	if _, err := Load(NewViper()); err == nil {
		t.Fatal("expected error")
	}
}
