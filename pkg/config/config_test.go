package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvOverDefaults(t *testing.T) {
	t.Setenv("FOLIO_TEST_NAME", "library")
	path := writeConfig(t, "name: ${FOLIO_TEST_NAME}\n")

	cfg := sample{Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "library" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	path := writeConfig(t, "port: 0\n")
	cfg := sample{Port: 1}
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg := sample{Name: "default", Port: 1}
	loaded, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if loaded || cfg.Name != "default" {
		t.Errorf("loaded = %v, cfg = %+v", loaded, cfg)
	}

	bad := sample{}
	if _, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), &bad); err == nil {
		t.Error("defaults must still be validated")
	}
}

func TestLoadWithDefaults_ExistingFile(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")
	cfg := sample{Port: 1}
	loaded, err := LoadWithDefaults(path, &cfg)
	if err != nil || !loaded || cfg.Port != 9000 {
		t.Errorf("loaded = %v, err = %v, cfg = %+v", loaded, err, cfg)
	}
}
