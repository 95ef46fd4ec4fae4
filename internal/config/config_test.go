package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relayctl/relayctl/internal/service"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relayctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
home = "/tmp/relayctl-test"

[log]
level = "debug"
color = true

[health]
attempts = 5
interval = "500ms"
timeout = "1s"

[router]
command = "relay-router --port 9100"
health_url = "http://127.0.0.1:9100/health"

[[providers]]
name = "openai"
enabled = true
command = "relay-provider-openai"
health_url = "http://127.0.0.1:9101/health"

[[providers]]
name = "anthropic"
enabled = false
command = "relay-provider-anthropic"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Home != "/tmp/relayctl-test" {
		t.Fatalf("home: %q", c.Home)
	}
	if c.Health.Attempts != 5 || c.Health.Interval != 500*time.Millisecond || c.Health.Timeout != time.Second {
		t.Fatalf("health config: %+v", c.Health)
	}
	if c.Router.Command != "relay-router --port 9100" {
		t.Fatalf("router command: %q", c.Router.Command)
	}
	if len(c.Providers) != 2 {
		t.Fatalf("providers: %+v", c.Providers)
	}
	// declaration order is preserved
	if c.Providers[0].Name != "openai" || c.Providers[1].Name != "anthropic" {
		t.Fatalf("provider order: %+v", c.Providers)
	}
	if !c.Providers[0].Enabled || c.Providers[1].Enabled {
		t.Fatalf("enabled flags: %+v", c.Providers)
	}
	if got := c.PidDir(); got != filepath.Join("/tmp/relayctl-test", "pid") {
		t.Fatalf("pid dir: %q", got)
	}
	if got := c.LogDir(); got != filepath.Join("/tmp/relayctl-test", "logs") {
		t.Fatalf("log dir: %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Router.Command != DefaultRouterCommand {
		t.Fatalf("router command default: %q", c.Router.Command)
	}
	if c.Router.HealthURL != DefaultRouterHealthURL {
		t.Fatalf("router health default: %q", c.Router.HealthURL)
	}
	if c.Health.Attempts != DefaultHealthAttempts || c.Health.Interval != DefaultHealthInterval {
		t.Fatalf("health defaults: %+v", c.Health)
	}
	if c.Stop.GracePeriod != DefaultGracePeriod || c.Stop.KillWait != DefaultKillWait {
		t.Fatalf("stop defaults: %+v", c.Stop)
	}
	if c.Server.Addr != DefaultServeAddr {
		t.Fatalf("serve addr default: %q", c.Server.Addr)
	}
	if c.Home == "" {
		t.Fatalf("home not defaulted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, service.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestLoadRejectsDuplicateProvider(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "dup"
enabled = false

[[providers]]
name = "dup"
enabled = false
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestLoadRejectsRouterNameCollision(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "router"
enabled = false
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("provider must not shadow the router")
	}
}

func TestLoadRejectsEnabledProviderWithoutCommand(t *testing.T) {
	path := writeConfig(t, `
[[providers]]
name = "broken"
enabled = true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for enabled provider without command")
	}
}

func TestResolvePathPrecedence(t *testing.T) {
	t.Setenv(EnvConfig, "/env/relayctl.toml")
	if got := ResolvePath("/flag/relayctl.toml"); got != "/flag/relayctl.toml" {
		t.Fatalf("flag should win: %q", got)
	}
	if got := ResolvePath(""); got != "/env/relayctl.toml" {
		t.Fatalf("env should win over default: %q", got)
	}
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvHome, "/data/relayctl")
	if got := ResolvePath(""); got != filepath.Join("/data/relayctl", "relayctl.toml") {
		t.Fatalf("default should live under home: %q", got)
	}
}

func TestHomeDirOverride(t *testing.T) {
	t.Setenv(EnvHome, "/custom/home")
	if got := HomeDir(); got != "/custom/home" {
		t.Fatalf("home override: %q", got)
	}
}

func TestHistoryDSNDefaultsSqlitePath(t *testing.T) {
	path := writeConfig(t, `
home = "/tmp/rh"

[history]
backend = "sqlite"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.HistoryDSN(); got != filepath.Join("/tmp/rh", "history.db") {
		t.Fatalf("history dsn: %q", got)
	}
}
