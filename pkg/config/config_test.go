package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
}

type validatedConfig struct {
	Name string `yaml:"name"`
}

var errNameRequired = errors.New("name is required")

func (c *validatedConfig) Validate() error {
	if c.Name == "" {
		return errNameRequired
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := writeConfig(t, "name: ansuz\nlevel: info\n")
	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "ansuz" || cfg.Level != "info" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_LEVEL", "debug")
	p := writeConfig(t, "level: ${TEST_LEVEL}\n")
	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, "name: [unclosed\n")
	var cfg testConfig
	if err := Load(p, &cfg); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeConfig(t, "name: \"\"\n")
	var cfg validatedConfig
	err := Load(p, &cfg)
	if !errors.Is(err, errNameRequired) {
		t.Errorf("err = %v, want validation failure", err)
	}
}
