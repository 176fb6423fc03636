package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// Dispatcher превращает task в Result. Никогда не возвращает ошибку.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher создаёт Dispatcher.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch разбирает payload, вызывает обработчик и собирает Result.
//
// Result.ID всегда равен task.ID. Паника обработчика превращается в ошибку
// "task processing panic: ...".
func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.Task) (result *domain.Result) {
	result = domain.NewResult(task.ID)
	logger := telemetry.WithTask(d.logger, task.ID, task.Type)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task processing panic", "panic", r, "stack", string(debug.Stack()))
			result.Fail(fmt.Sprintf("task processing panic: %v", r))
		}

		outcome := domain.OutcomeOf(result)
		telemetry.TasksTotal.WithLabelValues(metricType(task.Type), string(outcome)).Inc()
		telemetry.TaskDuration.WithLabelValues(metricType(task.Type)).Observe(time.Since(start).Seconds())
	}()

	req, err := domain.ParseRequest(task)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTaskType) {
			logger.Warn("unknown task type")
		} else {
			logger.Warn("invalid task payload", "error", err)
		}
		result.Fail(err.Error())
		return result
	}

	handler, err := d.registry.Get(req.Kind())
	if err != nil {
		logger.Error("no handler for task", "error", err)
		result.Fail(err.Error())
		return result
	}

	logger.Info("task started")

	value, err := handler.Handle(telemetry.WithLogger(ctx, logger), req)
	if err != nil {
		logger.Warn("task failed", "error", err, "duration", time.Since(start))
		result.Fail(err.Error())
		return result
	}

	result.Succeed(value)
	logger.Info("task succeeded", "duration", time.Since(start))
	return result
}

// metricType ограничивает значения label type известными типами.
func metricType(taskType string) string {
	switch taskType {
	case domain.TaskTypeURLMusic, domain.TaskTypeBilibiliMusic, domain.TaskTypeBilibiliSearch:
		return taskType
	default:
		return "unknown"
	}
}
