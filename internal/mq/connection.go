package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrNotConnected — соединение сейчас восстанавливается.
	ErrNotConnected = errors.New("amqp channel not available")

	// ErrClosed — Connection уже закрыт через Close.
	ErrClosed = errors.New("amqp connection closed")
)

// Задержки переподключения.
const (
	minRedialDelay = time.Second
	maxRedialDelay = 30 * time.Second
)

// Connection — AMQP соединение с одним каналом и автоматическим переподключением.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed chan struct{}
	once   sync.Once
}

// Dial подключается к RabbitMQ и запускает наблюдение за соединением.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		url:    url,
		logger: logger,
		closed: make(chan struct{}),
	}

	notify, err := c.open()
	if err != nil {
		return nil, err
	}

	go c.watch(notify)
	return c, nil
}

// open устанавливает соединение, открывает канал и возвращает канал уведомлений о закрытии.
func (c *Connection) open() (chan *amqp.Error, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	if c.isClosed() {
		// Close уже отработал и новое соединение никто не закроет.
		c.mu.Unlock()
		_ = ch.Close()
		_ = conn.Close()
		return nil, ErrClosed
	}
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")
	return conn.NotifyClose(make(chan *amqp.Error, 1)), nil
}

// watch ждёт разрыва и переподключается с растущей задержкой.
func (c *Connection) watch(notify chan *amqp.Error) {
	for {
		select {
		case <-c.closed:
			return
		case amqpErr, ok := <-notify:
			if ok && amqpErr != nil {
				c.logger.Warn("amqp connection lost", "error", amqpErr)
			}
		}

		c.mu.Lock()
		c.channel = nil
		c.mu.Unlock()

		next, ok := c.redial()
		if !ok {
			return
		}
		notify = next
	}
}

// redial повторяет подключение, пока не получится или соединение не закроют.
func (c *Connection) redial() (chan *amqp.Error, bool) {
	delay := minRedialDelay
	for {
		select {
		case <-c.closed:
			return nil, false
		case <-time.After(delay):
		}

		notify, err := c.open()
		if err == nil {
			c.logger.Info("reconnected to RabbitMQ")
			return notify, true
		}
		if errors.Is(err, ErrClosed) {
			return nil, false
		}

		c.logger.Warn("amqp reconnect failed", "error", err, "retry_in", delay)
		delay = min(delay*2, maxRedialDelay)
	}
}

// publish отправляет сообщение через текущий канал.
func (c *Connection) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return ErrNotConnected
	}
	return ch.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (c *Connection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.channel != nil {
			if cerr := c.channel.Close(); cerr != nil {
				err = fmt.Errorf("close channel: %w", cerr)
			}
		}
		if c.conn != nil {
			if cerr := c.conn.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close connection: %w", cerr)
			}
		}
		c.logger.Info("amqp connection closed")
	})
	return err
}
