package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/taskclient"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// cronParser понимает стандартные выражения и дескрипторы вида "@every 1m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Значения по умолчанию.
const (
	defaultMaxAttempts = 10
	defaultBatchSize   = 50
)

// Submitter отправляет результат на сервер задач.
type Submitter interface {
	Submit(ctx context.Context, result *domain.Result) error
}

// FlusherConfig — конфигурация Flusher.
type FlusherConfig struct {
	Store *Store

	// Schedule — cron-выражение повторной отправки.
	Schedule string

	// MaxAttempts — после стольких неудач запись удаляется (default: 10).
	MaxAttempts int

	// BatchSize — записей за один проход (default: 50).
	BatchSize int

	// Logger
	Logger *slog.Logger
}

// Flusher повторяет отправку неотправленных результатов по расписанию.
type Flusher struct {
	store       *Store
	schedule    cron.Schedule
	next        time.Time
	maxAttempts int
	batchSize   int
	logger      *slog.Logger
}

// NewFlusher создаёт Flusher. Первый проход — по расписанию от текущего момента.
func NewFlusher(cfg FlusherConfig) (*Flusher, error) {
	schedule, err := cronParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrSchedule, cfg.Schedule, err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Flusher{
		store:       cfg.Store,
		schedule:    schedule,
		next:        schedule.Next(time.Now()),
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		logger:      logger,
	}, nil
}

// Park сохраняет результат, который не удалось отправить.
func (f *Flusher) Park(ctx context.Context, result *domain.Result, cause error) error {
	if _, err := f.store.Save(ctx, result, cause.Error()); err != nil {
		return err
	}
	f.refreshGauge(ctx)
	return nil
}

// Due сообщает, пора ли делать проход.
func (f *Flusher) Due(now time.Time) bool {
	return !now.Before(f.next)
}

// Flush отправляет накопленные результаты и возвращает число доставленных.
//
// Проход останавливается на первой временной ошибке (сеть, 5xx).
// Ошибка возвращается только при сбое самого хранилища.
func (f *Flusher) Flush(ctx context.Context, submitter Submitter) (int, error) {
	f.next = f.schedule.Next(time.Now())

	entries, err := f.store.Pending(ctx, f.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, e := range entries {
		logger := f.logger.With("task_id", e.Result.ID, "outbox_id", e.ID)

		err := submitter.Submit(ctx, e.Result)
		if err == nil {
			telemetry.ResultSubmissions.WithLabelValues("replayed").Inc()
			if err := f.store.Delete(ctx, e.ID); err != nil {
				return delivered, err
			}
			delivered++
			logger.Info("parked result delivered", "attempts", e.Attempts+1)
			continue
		}

		if ctx.Err() != nil {
			return delivered, nil
		}

		var se *taskclient.StatusError
		if errors.As(err, &se) && se.IsClientError() {
			logger.Warn("parked result rejected by server, dropping", "status", se.Code)
			if err := f.store.Delete(ctx, e.ID); err != nil {
				return delivered, err
			}
			continue
		}

		// Сервер недоступен: остальные записи ждут следующего прохода,
		// иначе каждая съест полный таймаут клиента.
		if e.Attempts+1 >= f.maxAttempts {
			logger.Warn("parked result exceeded max attempts, dropping",
				"attempts", e.Attempts+1,
				"error", err,
			)
			if err := f.store.Delete(ctx, e.ID); err != nil {
				return delivered, err
			}
		} else {
			if err := f.store.MarkAttempt(ctx, e.ID, err.Error()); err != nil {
				return delivered, err
			}
			logger.Debug("parked result still undeliverable", "attempts", e.Attempts+1, "error", err)
		}
		break
	}

	f.refreshGauge(ctx)
	return delivered, nil
}

// refreshGauge обновляет метрику musiclet_outbox_pending.
func (f *Flusher) refreshGauge(ctx context.Context) {
	n, err := f.store.Count(ctx)
	if err != nil {
		f.logger.Warn("failed to count outbox", "error", err)
		return
	}
	telemetry.OutboxPending.Set(float64(n))
}
