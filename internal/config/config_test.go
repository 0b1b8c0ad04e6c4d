package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SESSION_NAME", "")
	t.Setenv("SESSION_COOKIE_SECURE", "")
	t.Setenv("PASSWORD_SCHEME", "")
	t.Setenv("LOGIN_COOLDOWN_SECONDS", "")
	t.Setenv("SESSION_TIMEOUT_SECONDS", "")
	t.Setenv("LOGOUT_BACKDATE_SECONDS", "")
	t.Setenv("PAGE_PREFIX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SessionName != "TU_HAA" {
		t.Fatalf("unexpected session name: %s", cfg.SessionName)
	}
	if cfg.CookieSecure {
		t.Fatal("expected secure cookie flag to default to false")
	}
	if cfg.LoginCooldown != 900*time.Second || cfg.SessionTimeout != 900*time.Second {
		t.Fatalf("unexpected durations: cooldown=%s timeout=%s", cfg.LoginCooldown, cfg.SessionTimeout)
	}
	if cfg.LogoutBackdate != time.Hour {
		t.Fatalf("unexpected logout backdate: %s", cfg.LogoutBackdate)
	}
	if cfg.PasswordScheme != PasswordSchemeSHA512 {
		t.Fatalf("unexpected password scheme: %s", cfg.PasswordScheme)
	}
	if cfg.PagePrefix != "/pages" {
		t.Fatalf("unexpected page prefix: %s", cfg.PagePrefix)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("PASSWORD_SCHEME", "BCRYPT")
	t.Setenv("LOGIN_COOLDOWN_SECONDS", "60")
	t.Setenv("PAGE_PREFIX", "/app/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.CookieSecure {
		t.Fatal("expected secure cookie flag")
	}
	if cfg.PasswordScheme != PasswordSchemeBcrypt {
		t.Fatalf("unexpected password scheme: %s", cfg.PasswordScheme)
	}
	if cfg.LoginCooldown != time.Minute {
		t.Fatalf("unexpected cooldown: %s", cfg.LoginCooldown)
	}
	if cfg.PagePrefix != "/app" {
		t.Fatalf("unexpected page prefix: %s", cfg.PagePrefix)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without SESSION_SECRET")
	}

	t.Setenv("SESSION_SECRET", "short")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "at least") {
		t.Fatalf("expected short secret error, got %v", err)
	}
}

func TestValidateRejectsUnknownScheme(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("PASSWORD_SCHEME", "md5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown password scheme")
	}
}
