package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesModules(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  provider.gemini:
    api_key: test-key
  channel.discord:
    token: test-token
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("version: %q", cfg.Version)
	}
	if len(cfg.Modules) != 2 {
		t.Errorf("modules: got %d, want 2", len(cfg.Modules))
	}

	ids := Resolve(cfg)
	if len(ids) != 2 || ids[0] != "channel.discord" || ids[1] != "provider.gemini" {
		t.Errorf("resolve order: %v", ids)
	}
}

func TestLoad_ExpandsEnvVariables(t *testing.T) {
	t.Setenv("COPILOT_TEST_TOKEN", "secret-from-env")

	path := writeConfig(t, `
version: "1"
modules:
  channel.discord:
    token: ${COPILOT_TEST_TOKEN}
    name: ${COPILOT_TEST_MISSING:-fallback-name}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	node := cfg.Modules["channel.discord"]
	var decoded struct {
		Token string `yaml:"token"`
		Name  string `yaml:"name"`
	}
	if err := node.Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Token != "secret-from-env" {
		t.Errorf("token: %q", decoded.Token)
	}
	if decoded.Name != "fallback-name" {
		t.Errorf("default not applied: %q", decoded.Name)
	}
}

func TestLoad_UnresolvedVariableFails(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  channel.discord:
    token: ${COPILOT_DEFINITELY_UNSET_VAR}
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "COPILOT_DEFINITELY_UNSET_VAR") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestValidate_RejectsBadVersion(t *testing.T) {
	t.Parallel()
	cfg := &Config{Version: "2"}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected version error")
	}
}

func TestValidate_RejectsUnknownModule(t *testing.T) {
	path := writeConfig(t, `
version: "1"
modules:
  no.such.module: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected unknown-module error")
	}
}
