package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/mq"
	"github.com/shaiso/musiclet/internal/outbox"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// Default configuration values.
const (
	defaultIdleBackoff  = time.Second
	defaultErrorBackoff = 5 * time.Second
	publishTimeout      = 5 * time.Second
)

// TaskSource выдаёт следующую task. nil, nil — task нет.
type TaskSource interface {
	Poll(ctx context.Context) (*domain.Task, error)
}

// ResultChannel принимает результат task.
type ResultChannel interface {
	Submit(ctx context.Context, result *domain.Result) error
}

// TaskDispatcher превращает task в Result.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, task *domain.Task) *domain.Result
}

// EventPublisher публикует событие о завершённой task.
type EventPublisher interface {
	PublishTaskCompleted(ctx context.Context, payload mq.TaskCompletedPayload) error
}

// Outbox хранит неотправленные результаты и повторяет их отправку.
type Outbox interface {
	Park(ctx context.Context, result *domain.Result, cause error) error
	Due(now time.Time) bool
	Flush(ctx context.Context, submitter outbox.Submitter) (int, error)
}

// Worker — однопоточный цикл: poll → dispatch → submit.
//
// Остановка (отмена контекста или Stop) наблюдается только между итерациями:
// dispatch и submit текущей task идут на контексте без отмены.
type Worker struct {
	source     TaskSource
	results    ResultChannel
	dispatcher TaskDispatcher

	// Опционально
	events EventPublisher
	outbox Outbox

	idleBackoff  time.Duration
	errorBackoff time.Duration

	// after — таймер ожидания; подменяется в тестах.
	after func(time.Duration) <-chan time.Time

	processed atomic.Int64

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	running    bool
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Source     TaskSource
	Results    ResultChannel
	Dispatcher TaskDispatcher

	// Events — публикация task.completed (опционально).
	Events EventPublisher

	// Outbox — хранение неотправленных результатов (опционально).
	Outbox Outbox

	IdleBackoff  time.Duration // пауза, если task нет (default: 1s)
	ErrorBackoff time.Duration // пауза после ошибки poll/submit (default: 5s)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	idle := cfg.IdleBackoff
	if idle <= 0 {
		idle = defaultIdleBackoff
	}
	errBackoff := cfg.ErrorBackoff
	if errBackoff <= 0 {
		errBackoff = defaultErrorBackoff
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		source:       cfg.Source,
		results:      cfg.Results,
		dispatcher:   cfg.Dispatcher,
		events:       cfg.Events,
		outbox:       cfg.Outbox,
		idleBackoff:  idle,
		errorBackoff: errBackoff,
		after:        time.After,
		logger:       logger,
	}
}

// Run выполняет цикл до отмены ctx или вызова Stop.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.stoppedMu.Lock()
	if w.running {
		w.stoppedMu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.cancelFunc = cancel
	stopped := w.stopped
	w.stoppedMu.Unlock()

	if stopped {
		return nil
	}

	w.logger.Info("worker started",
		"idle_backoff", w.idleBackoff,
		"error_backoff", w.errorBackoff,
		"events", w.events != nil,
		"outbox", w.outbox != nil,
	)

	for ctx.Err() == nil && !w.IsStopped() {
		w.flushOutbox(ctx)

		wait := w.iterate(ctx)
		if wait > 0 && !w.sleep(ctx, wait) {
			break
		}
	}

	w.logger.Info("worker stopped", "processed", w.processed.Load())
	return nil
}

// Stop просит цикл остановиться. Текущая task доводится до конца.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	defer w.stoppedMu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// Processed возвращает число обработанных task.
// Безопасен для вызова из другой горутины во время Run.
func (w *Worker) Processed() int {
	return int(w.processed.Load())
}

// iterate выполняет одну итерацию и возвращает паузу перед следующей.
func (w *Worker) iterate(ctx context.Context) time.Duration {
	task, err := w.source.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		telemetry.PollsTotal.WithLabelValues(string(domain.PollError)).Inc()
		w.logger.Error("failed to poll task", "error", err, "retry_in", w.errorBackoff)
		return w.errorBackoff
	}
	if task == nil {
		telemetry.PollsTotal.WithLabelValues(string(domain.PollEmpty)).Inc()
		return w.idleBackoff
	}
	telemetry.PollsTotal.WithLabelValues(string(domain.PollTask)).Inc()

	// Остановка не прерывает начатую task.
	taskCtx := context.WithoutCancel(ctx)
	logger := telemetry.WithTask(w.logger, task.ID, task.Type)

	start := time.Now()
	result := w.dispatcher.Dispatch(taskCtx, task)
	w.processed.Add(1)

	w.publish(taskCtx, logger, task, result, time.Since(start))

	if err := w.results.Submit(taskCtx, result); err != nil {
		telemetry.ResultSubmissions.WithLabelValues("failed").Inc()
		logger.Error("failed to submit result", "error", err, "success", result.Success)
		w.park(taskCtx, logger, result, err)
		return w.errorBackoff
	}

	telemetry.ResultSubmissions.WithLabelValues("accepted").Inc()
	logger.Info("result submitted", "success", result.Success, "processed", w.processed.Load())
	return 0
}

// publish отправляет событие task.completed; ошибка только логируется.
func (w *Worker) publish(ctx context.Context, logger *slog.Logger, task *domain.Task, result *domain.Result, took time.Duration) {
	if w.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := w.events.PublishTaskCompleted(ctx, mq.TaskCompletedPayload{
		TaskID:     task.ID,
		Type:       task.Type,
		Success:    result.Success,
		Error:      result.Error,
		DurationMS: took.Milliseconds(),
	})
	if err != nil {
		logger.Warn("failed to publish task.completed", "error", err)
	}
}

// park сохраняет неотправленный результат в outbox, если он включён.
func (w *Worker) park(ctx context.Context, logger *slog.Logger, result *domain.Result, cause error) {
	if w.outbox == nil {
		logger.Error("result lost, outbox disabled")
		return
	}
	if err := w.outbox.Park(ctx, result, cause); err != nil {
		logger.Error("result lost, failed to park in outbox", "error", err)
		return
	}
	logger.Info("result parked in outbox")
}

// flushOutbox повторяет отправку накопленных результатов, если подошло время.
func (w *Worker) flushOutbox(ctx context.Context) {
	if w.outbox == nil || !w.outbox.Due(time.Now()) {
		return
	}

	delivered, err := w.outbox.Flush(ctx, w.results)
	if err != nil {
		w.logger.Error("outbox flush failed", "error", err)
		return
	}
	if delivered > 0 {
		w.logger.Info("outbox flushed", "delivered", delivered)
	}
}

// sleep ждёт d; false — если за это время пришла остановка.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-w.after(d):
		return true
	case <-ctx.Done():
		return false
	}
}
