//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Log.Level)
	}
	if cfg.Store.Driver != "file" {
		t.Errorf("expected default file store, got %s", cfg.Store.Driver)
	}
	if cfg.Payment.ConfirmTimeout != 0 {
		t.Errorf("expected no confirmation timeout by default, got %s", cfg.Payment.ConfirmTimeout)
	}
	if cfg.Bridge.SimulatedStatus != "cancelled" {
		t.Errorf("expected simulated status cancelled, got %s", cfg.Bridge.SimulatedStatus)
	}
	if !strings.Contains(cfg.App.ReferralLinkTemplate, "%s") {
		t.Errorf("unexpected referral template %s", cfg.App.ReferralLinkTemplate)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  driver: redis
redis:
  url: localhost:6379
payment:
  confirm_timeout: 2m
bot:
  token: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WHITELIST_BOT_TOKEN", "from-env")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Bot.Token != "from-env" {
		t.Errorf("expected env override, got %s", cfg.Bot.Token)
	}
	if cfg.Payment.ConfirmTimeout != 2*time.Minute {
		t.Errorf("expected 2m timeout, got %s", cfg.Payment.ConfirmTimeout)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev mode")
	}
	if err := cfg.ValidateApp(); err != nil {
		t.Errorf("ValidateApp in dev mode: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("app requires backend outside dev", func(t *testing.T) {
		cfg, _ := Parse(nil)
		if err := cfg.ValidateApp(); err == nil {
			t.Fatal("expected an error for missing backend.base_url")
		}
	})

	t.Run("app rejects unknown store driver", func(t *testing.T) {
		cfg, _ := Parse([]byte("store:\n  driver: sqlite\nbackend:\n  base_url: http://x\n"))
		if err := cfg.ValidateApp(); err == nil {
			t.Fatal("expected an error for unknown driver")
		}
	})

	t.Run("invoice api requires token, redis and secret", func(t *testing.T) {
		cfg, _ := Parse([]byte("bot:\n  token: t\nredis:\n  url: r:6379\n"))
		if err := cfg.ValidateInvoiceAPI(); err == nil {
			t.Fatal("expected an error for missing jwt secret")
		}
		cfg.API.AllowAnonymous = true
		if err := cfg.ValidateInvoiceAPI(); err != nil {
			t.Errorf("expected anonymous mode to pass, got %v", err)
		}
	})
}
