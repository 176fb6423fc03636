// Package config загружает конфигурацию воркера из TOML-файла.
//
// Значения по умолчанию берутся из встроенного config.example.toml,
// поверх них читается файл, затем применяются переменные окружения:
//   - MUSICLET_SERVER_URL — адрес сервера задач
//   - MUSICLET_TOKEN — токен воркера
//   - DB_URL — строка подключения к PostgreSQL
//   - WORKER_PORT — порт для /healthz и /metrics
package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config — полная конфигурация воркера.
type Config struct {
	ServerURL string `toml:"server_url"`
	Token     string `toml:"token"`
	Pgsql     string `toml:"pgsql"`

	Worker   WorkerConfig   `toml:"worker"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Resolver ResolverConfig `toml:"resolver"`
	Storage  StorageConfig  `toml:"storage"`
	Outbox   OutboxConfig   `toml:"outbox"`
	Events   EventsConfig   `toml:"events"`
}

// WorkerConfig — параметры цикла воркера и клиента сервера задач.
type WorkerConfig struct {
	PollTimeout        Duration `toml:"poll_timeout"`
	PollMargin         Duration `toml:"poll_margin"`
	IdleBackoff        Duration `toml:"idle_backoff"`
	ErrorBackoff       Duration `toml:"error_backoff"`
	MetricsAddr        string   `toml:"metrics_addr"`
	InsecureSkipVerify bool     `toml:"insecure_skip_verify"`
	DBMaxConns         int32    `toml:"db_max_conns"`
}

// TimeoutsConfig — ограничения на отдельные стадии pipeline. 0 — без ограничения.
type TimeoutsConfig struct {
	Resolve  Duration `toml:"resolve"`
	Upload   Duration `toml:"upload"`
	Database Duration `toml:"database"`
}

// ResolverConfig — параметры загрузчика медиа.
type ResolverConfig struct {
	Binary      string   `toml:"binary"`
	DownloadDir string   `toml:"download_dir"`
	RateLimit   float64  `toml:"rate_limit"` // запросов в секунду, 0 — без ограничения
	Burst       int      `toml:"burst"`
	ExtraArgs   []string `toml:"extra_args"`
}

// StorageConfig — выбор object store.
type StorageConfig struct {
	Type  string      `toml:"type"` // "s3" или "qiniu"
	S3    S3Config    `toml:"s3"`
	Qiniu QiniuConfig `toml:"qiniu"`
}

// S3Config — S3 и совместимые хранилища (minio).
type S3Config struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	EndpointURL     string `toml:"endpoint_url"`
	Prefix          string `toml:"prefix"`
}

// QiniuConfig — хранилище Qiniu Kodo.
type QiniuConfig struct {
	AK     string `toml:"ak"`
	SK     string `toml:"sk"`
	Bucket string `toml:"bucket"`
	Domain string `toml:"domain"`
	Prefix string `toml:"prefix"`
}

// OutboxConfig — локальное хранилище неотправленных результатов.
type OutboxConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	Replay      string `toml:"replay"`
	MaxAttempts int    `toml:"max_attempts"`
}

// EventsConfig — публикация событий task.completed в RabbitMQ.
type EventsConfig struct {
	RabbitMQURL string `toml:"rabbitmq_url"`
}

// Duration — time.Duration, читаемый из строки вида "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default возвращает конфигурацию из встроенного примера.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load читает TOML-файл поверх значений по умолчанию и применяет переменные окружения.
//
// Если path пустой, используются только значения по умолчанию и окружение.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, path, err)
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrLoad, path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv переопределяет значения из переменных окружения.
func (c *Config) applyEnv() {
	if v := os.Getenv("MUSICLET_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("MUSICLET_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		c.Pgsql = v
	}
	if v := os.Getenv("WORKER_PORT"); v != "" {
		c.Worker.MetricsAddr = ":" + v
	}
}

// Validate проверяет обязательные поля.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server_url is required", ErrInvalid)
	}
	if c.Pgsql == "" {
		return fmt.Errorf("%w: pgsql is required", ErrInvalid)
	}
	if c.Worker.PollTimeout.Duration < time.Second {
		return fmt.Errorf("%w: worker.poll_timeout must be at least 1s", ErrInvalid)
	}

	switch c.Storage.Type {
	case "s3":
		s3 := c.Storage.S3
		if s3.AccessKeyID == "" || s3.SecretAccessKey == "" || s3.Bucket == "" {
			return fmt.Errorf("%w: storage.s3 requires access_key_id, secret_access_key and bucket", ErrInvalid)
		}
	case "qiniu":
		q := c.Storage.Qiniu
		if q.AK == "" || q.SK == "" || q.Bucket == "" || q.Domain == "" {
			return fmt.Errorf("%w: storage.qiniu requires ak, sk, bucket and domain", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStorage, c.Storage.Type)
	}

	if c.Outbox.Enabled && c.Outbox.Path == "" {
		return fmt.Errorf("%w: outbox.path is required when outbox is enabled", ErrInvalid)
	}
	return nil
}

// WriteExample записывает пример конфигурации в path. Существующий файл не перезаписывается.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

const mask = "****"

// Redacted возвращает копию конфигурации со скрытыми секретами.
func (c *Config) Redacted() *Config {
	out := *c
	out.Token = maskSecret(c.Token)
	out.Pgsql = redactURL(c.Pgsql)
	out.Events.RabbitMQURL = redactURL(c.Events.RabbitMQURL)
	out.Storage.S3.SecretAccessKey = maskSecret(c.Storage.S3.SecretAccessKey)
	out.Storage.Qiniu.SK = maskSecret(c.Storage.Qiniu.SK)
	out.Resolver.ExtraArgs = append([]string(nil), c.Resolver.ExtraArgs...)
	return &out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return mask
}

// redactURL скрывает пароль в URL. Строки не в формате URL скрываются целиком.
func redactURL(s string) string {
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return mask
	}
	return u.Redacted()
}
