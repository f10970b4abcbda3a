package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInitCreatesConfig(t *testing.T) {
	initPath = filepath.Join(t.TempDir(), "config.yaml")
	initForce = false

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, err := os.ReadFile(initPath)
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if !strings.Contains(string(data), "rate_limit") {
		t.Error("config missing rate_limit section")
	}
	if !strings.HasPrefix(string(data), "#") {
		t.Error("config missing commented header")
	}
}

func TestRunInitNoOverwriteWithoutForce(t *testing.T) {
	initPath = filepath.Join(t.TempDir(), "config.yaml")
	initForce = false

	if err := os.WriteFile(initPath, []byte("custom: true\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, _ := os.ReadFile(initPath)
	if string(data) != "custom: true\n" {
		t.Error("existing config overwritten without --force")
	}
}

func TestRunInitForceOverwrites(t *testing.T) {
	initPath = filepath.Join(t.TempDir(), "config.yaml")
	initForce = true

	if err := os.WriteFile(initPath, []byte("custom: true\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	data, _ := os.ReadFile(initPath)
	if !strings.Contains(string(data), "rate_limit") {
		t.Error("config not overwritten with --force")
	}
}
