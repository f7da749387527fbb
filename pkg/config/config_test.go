package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Addr    string        `envconfig:"ADDR" default:":8080"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Token   string        `envconfig:"TOKEN" required:"true"`
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("APP_TOKEN", "secret")

	conf, err := New[testConfig]("APP")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if conf.Addr != ":9090" {
		t.Fatalf("addr = %q", conf.Addr)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("default timeout = %s", conf.Timeout)
	}
	if conf.Token != "secret" {
		t.Fatalf("token = %q", conf.Token)
	}
}

func TestNewMissingRequired(t *testing.T) {
	t.Setenv("APP_TOKEN", "")
	os.Unsetenv("APP_TOKEN")

	if _, err := New[testConfig]("APP"); err == nil {
		t.Fatal("expected an error for a missing required variable")
	}
}

func TestExportEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "app_host=db.internal\napp_port=5432\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// A value already present in the real environment must win.
	t.Setenv("APP_HOST", "from-env")

	if err := exportEnvFile(path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := os.Getenv("APP_HOST"); got != "from-env" {
		t.Fatalf("real environment must win, got %q", got)
	}
	if got := os.Getenv("APP_PORT"); got != "5432" {
		t.Fatalf("file value not exported, got %q", got)
	}
	t.Cleanup(func() { os.Unsetenv("APP_PORT") })
}
