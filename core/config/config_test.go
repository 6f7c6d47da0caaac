package config

import (
	"strings"
	"testing"
)

func baseConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:    "123:abc",
			AdminIDs: []int64{42},
			RunMode:  RunModeWebhook,
		},
		Webhook: WebhookConfig{Host: "https://bot.example.com"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Webhook.Port != 10000 {
		t.Fatalf("port default = %d, want 10000", cfg.Webhook.Port)
	}
	if cfg.Webhook.Listen != "0.0.0.0" {
		t.Fatalf("listen default = %q", cfg.Webhook.Listen)
	}
	if cfg.Publish.IntervalSeconds != 600 {
		t.Fatalf("interval default = %d, want 600", cfg.Publish.IntervalSeconds)
	}
	if cfg.Publish.Policy != PublishPolicyDrop {
		t.Fatalf("policy default = %q, want drop", cfg.Publish.Policy)
	}
	if cfg.Storage.DataFile != "data.json" {
		t.Fatalf("data file default = %q", cfg.Storage.DataFile)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeRequiresWebhookHost(t *testing.T) {
	cfg := baseConfig()
	cfg.Webhook.Host = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing webhook host")
	}
}

func TestNormalizeLongpollSkipsWebhookChecks(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.RunMode = "polling"
	cfg.Webhook.Host = ""
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejectsUnknownPolicy(t *testing.T) {
	cfg := baseConfig()
	cfg.Publish.Policy = "retry_forever"
	err := Normalize(cfg)
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	if !strings.Contains(err.Error(), "publish.policy") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWebhookURL(t *testing.T) {
	cfg := baseConfig()
	cfg.Webhook.Host = "https://bot.example.com/"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "https://bot.example.com/webhook/123:abc"
	if got := cfg.WebhookURL(); got != want {
		t.Fatalf("webhook url = %q, want %q", got, want)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := baseConfig()
	if !cfg.IsAdmin(42) {
		t.Fatal("expected user 42 to be admin")
	}
	if cfg.IsAdmin(7) {
		t.Fatal("expected user 7 to not be admin")
	}
	if len(cfg.AdminSet()) != 1 {
		t.Fatalf("admin set size = %d", len(cfg.AdminSet()))
	}
}
