package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validS3 = `
server_url = "https://tasks.example.com"
token = "secret"
pgsql = "postgresql://u:p@db:5432/music"

[worker]
poll_timeout = "20s"

[storage]
type = "s3"

[storage.s3]
access_key_id = "ak"
secret_access_key = "sk"
region = "eu-central-1"
bucket = "music"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Worker.PollTimeout.Duration != 30*time.Second {
		t.Errorf("expected poll timeout 30s, got %v", cfg.Worker.PollTimeout)
	}
	if cfg.Worker.PollMargin.Duration != 5*time.Second {
		t.Errorf("expected poll margin 5s, got %v", cfg.Worker.PollMargin)
	}
	if cfg.Worker.IdleBackoff.Duration != time.Second {
		t.Errorf("expected idle backoff 1s, got %v", cfg.Worker.IdleBackoff)
	}
	if cfg.Worker.ErrorBackoff.Duration != 5*time.Second {
		t.Errorf("expected error backoff 5s, got %v", cfg.Worker.ErrorBackoff)
	}
	if cfg.Storage.Type != "s3" {
		t.Errorf("expected storage type s3, got %s", cfg.Storage.Type)
	}
	if cfg.Resolver.Binary != "yt-dlp" {
		t.Errorf("expected yt-dlp binary, got %s", cfg.Resolver.Binary)
	}
	if cfg.Outbox.Enabled {
		t.Error("outbox should be disabled by default")
	}
	if cfg.Timeouts.Database.Duration != 15*time.Second {
		t.Errorf("expected database timeout 15s, got %v", cfg.Timeouts.Database)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validS3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL != "https://tasks.example.com" {
		t.Errorf("unexpected server url: %s", cfg.ServerURL)
	}
	if cfg.Worker.PollTimeout.Duration != 20*time.Second {
		t.Errorf("expected poll timeout 20s, got %v", cfg.Worker.PollTimeout)
	}
	// Не указанные в файле значения остаются по умолчанию
	if cfg.Worker.ErrorBackoff.Duration != 5*time.Second {
		t.Errorf("expected default error backoff, got %v", cfg.Worker.ErrorBackoff)
	}
	if cfg.Storage.S3.Region != "eu-central-1" {
		t.Errorf("unexpected region: %s", cfg.Storage.S3.Region)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MUSICLET_TOKEN", "from-env")
	t.Setenv("DB_URL", "postgresql://env/db")
	t.Setenv("WORKER_PORT", "9100")

	cfg, err := Load(writeConfig(t, validS3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Token != "from-env" {
		t.Errorf("expected token from env, got %s", cfg.Token)
	}
	if cfg.Pgsql != "postgresql://env/db" {
		t.Errorf("expected pgsql from env, got %s", cfg.Pgsql)
	}
	if cfg.Worker.MetricsAddr != ":9100" {
		t.Errorf("expected metrics addr :9100, got %s", cfg.Worker.MetricsAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, validS3+"\n[timeouts]\nresolve = \"soon\"\n"))
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no server", func(c *Config) { c.ServerURL = "" }, ErrInvalid},
		{"no pgsql", func(c *Config) { c.Pgsql = "" }, ErrInvalid},
		{"short poll", func(c *Config) { c.Worker.PollTimeout.Duration = 0 }, ErrInvalid},
		{"s3 without bucket", func(c *Config) { c.Storage.S3.Bucket = "" }, ErrInvalid},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }, ErrUnsupportedStorage},
		{"qiniu incomplete", func(c *Config) { c.Storage.Type = "qiniu" }, ErrInvalid},
		{"qiniu valid", func(c *Config) {
			c.Storage.Type = "qiniu"
			c.Storage.Qiniu = QiniuConfig{AK: "a", SK: "s", Bucket: "b", Domain: "https://cdn"}
		}, nil},
		{"outbox without path", func(c *Config) {
			c.Outbox.Enabled = true
			c.Outbox.Path = ""
		}, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validS3))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file should exist: %v", err)
	}

	if err := WriteExample(path); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists on second write, got %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Token = "secret"
	cfg.Pgsql = "postgresql://u:p@db:5432/music"
	cfg.Events.RabbitMQURL = "amqp://guest:guest@mq:5672/"
	cfg.Storage.S3.SecretAccessKey = "s3-secret"

	masked := cfg.Redacted()

	if masked.Token != "****" {
		t.Errorf("expected masked token, got %q", masked.Token)
	}
	if masked.Pgsql != "postgresql://u:xxxxx@db:5432/music" {
		t.Errorf("expected password hidden, got %q", masked.Pgsql)
	}
	if masked.Events.RabbitMQURL != "amqp://guest:xxxxx@mq:5672/" {
		t.Errorf("expected password hidden, got %q", masked.Events.RabbitMQURL)
	}
	if masked.Storage.S3.SecretAccessKey != "****" {
		t.Errorf("expected masked s3 secret, got %q", masked.Storage.S3.SecretAccessKey)
	}
	if cfg.Token != "secret" {
		t.Error("Redacted must not modify the receiver")
	}
	if got := redactURL("host=db password=p"); got != "****" {
		t.Errorf("expected key/value DSN masked, got %q", got)
	}
}
