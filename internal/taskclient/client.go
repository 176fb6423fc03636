package taskclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/musiclet/internal/domain"
	"golang.org/x/oauth2"
)

// Заголовок версии клиента; сервер по нему различает версии воркеров.
const (
	VersionHeader = "Music-Let-Version"
	Version       = "v0.0.2"
)

// Значения по умолчанию.
const (
	defaultPollTimeout = 30 * time.Second
	defaultPollMargin  = 5 * time.Second
)

// Параметры пула соединений.
const (
	maxIdleConns        = 10
	maxIdleConnsPerHost = 5
	maxConnsPerHost     = 5
	idleConnTimeout     = 60 * time.Second
)

// Config — конфигурация Client.
type Config struct {
	// ServerURL — базовый адрес сервера задач.
	ServerURL string

	// Token — bearer-токен; пустой токен отключает заголовок Authorization.
	Token string

	// PollTimeout — сколько сервер держит long-poll (default: 30s).
	PollTimeout time.Duration

	// PollMargin — запас к PollTimeout для таймаута HTTP-клиента (default: 5s).
	PollMargin time.Duration

	// InsecureSkipVerify отключает проверку TLS-сертификата сервера.
	InsecureSkipVerify bool

	// Logger
	Logger *slog.Logger
}

// Client — HTTP-клиент к серверу задач.
type Client struct {
	baseURL     string
	pollTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// New создаёт Client с общим keep-alive пулом соединений.
func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, ErrNoServerURL
	}
	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	margin := cfg.PollMargin
	if margin <= 0 {
		margin = defaultPollMargin
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // включается явно в конфиге
	}

	var rt http.RoundTripper = transport
	if cfg.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: cfg.Token,
				TokenType:   "Bearer",
			}),
			Base: transport,
		}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.ServerURL, "/"),
		pollTimeout: pollTimeout,
		httpClient: &http.Client{
			Transport: rt,
			Timeout:   pollTimeout + margin,
		},
		logger: logger,
	}, nil
}

// Poll запрашивает следующую task через long-poll.
//
// Возвращает:
//   - task, nil — сервер выдал task
//   - nil, nil — task нет (204 или истёк таймаут клиента)
//   - nil, ctx.Err() — отменён родительский контекст
//   - nil, error — сетевая ошибка, неожиданный код или битое тело
func (c *Client) Poll(ctx context.Context) (*domain.Task, error) {
	endpoint := c.baseURL + "/tasks/poll?timeout=" + strconv.Itoa(int(c.pollTimeout/time.Second))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(VersionHeader, Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			c.logger.Debug("poll timed out, no task")
			return nil, nil
		}
		return nil, fmt.Errorf("poll: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, &StatusError{Op: "poll", Code: resp.StatusCode}
	}

	var task domain.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isTimeout(err) {
			c.logger.Debug("poll timed out while reading body, no task")
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &task, nil
}

// Submit отправляет результат task на сервер. Успех — 200 или 202.
func (c *Client) Submit(ctx context.Context, result *domain.Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks/result", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(VersionHeader, Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	default:
		return &StatusError{Op: "submit result", Code: resp.StatusCode}
	}
}

// --- Helpers ---

// isTimeout сообщает, истёк ли таймаут HTTP-клиента.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// drain дочитывает и закрывает тело, чтобы соединение вернулось в пул.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
