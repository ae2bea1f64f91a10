package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func testSeed(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(priv.Seed())
}

func TestLoad(t *testing.T) {
	seed := testSeed(t)

	t.Run("valid config with defaults", func(t *testing.T) {
		writeConfig(t, `
client:
  origin: https://bucket.medoro.dev
  keyId: k1
  privateKey: `+seed+`
`)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Client.Origin != "https://bucket.medoro.dev" {
			t.Errorf("origin = %q", cfg.Client.Origin)
		}
		if cfg.Client.DefaultExpiry != 60 {
			t.Errorf("default expiry = %d, want 60", cfg.Client.DefaultExpiry)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("log level = %q, want info", cfg.Log.Level)
		}
	})

	t.Run("missing origin rejected", func(t *testing.T) {
		writeConfig(t, `
client:
  keyId: k1
  privateKey: `+seed+`
`)
		if _, err := Load(); err == nil {
			t.Fatal("expected validation error for missing origin")
		}
	})

	t.Run("expiry out of range rejected", func(t *testing.T) {
		writeConfig(t, `
client:
  origin: https://bucket.medoro.dev
  keyId: k1
  privateKey: `+seed+`
  defaultExpiry: 5
`)
		if _, err := Load(); err == nil {
			t.Fatal("expected validation error for defaultExpiry below 10")
		}
	})

	t.Run("private key from environment wins", func(t *testing.T) {
		other := testSeed(t)
		writeConfig(t, `
client:
  origin: https://bucket.medoro.dev
  keyId: k1
  privateKey: `+seed+`
`)
		t.Setenv("MEDORO_PRIVATE_KEY", other)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Client.PrivateKey != other {
			t.Error("environment private key should override the file")
		}
	})
}
