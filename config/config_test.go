package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MAIL_PROVIDER", "")
	t.Setenv("AUTH_PASSWORD_LOCKOUT", "")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", env.DBDriver)
	}
	if env.MailProvider != "log" {
		t.Errorf("MailProvider = %q, want log", env.MailProvider)
	}
	if env.PasswordLockout != 30*time.Minute {
		t.Errorf("PasswordLockout = %v, want 30m", env.PasswordLockout)
	}
	if env.SecretKey == "" {
		t.Error("development should fall back to a secret key")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTH_RESET_INTERVAL", "90m")
	t.Setenv("REGISTRATION_RESTRICT_DOMAINS", "true")
	t.Setenv("APP_BASE_URL", "https://qa.example.com/")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", env.DBDriver)
	}
	if env.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", env.RedisDB)
	}
	if env.ResetInterval != 90*time.Minute {
		t.Errorf("ResetInterval = %v, want 90m", env.ResetInterval)
	}
	if !env.RestrictDomains {
		t.Error("RestrictDomains should be true")
	}
	if env.BaseURL != "https://qa.example.com" {
		t.Errorf("BaseURL = %q", env.BaseURL)
	}
}

func TestLoadEnvRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"unknown mailer", map[string]string{"MAIL_PROVIDER": "pigeon"}},
		{"resend without key", map[string]string{"MAIL_PROVIDER": "resend", "RESEND_API_KEY": ""}},
		{"production without secret", map[string]string{"APP_ENV": "production", "SECRET_KEY": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadEnv(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
