package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркера. Регистрируются в глобальном реестре Prometheus.
var (
	// PollsTotal — циклы long-poll по итогу (task, empty, error).
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musiclet_polls_total",
		Help: "Long-poll cycles against the task server by outcome",
	}, []string{"outcome"})

	// TasksTotal — обработанные tasks по типу и итогу.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musiclet_tasks_total",
		Help: "Processed tasks by type and outcome",
	}, []string{"type", "outcome"})

	// TaskDuration — время обработки task от dispatch до результата.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "musiclet_task_duration_seconds",
		Help:    "Task processing time by type",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"type"})

	// PipelineFailures — ошибки стадий media pipeline.
	PipelineFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musiclet_pipeline_failures_total",
		Help: "Media ingestion failures by stage",
	}, []string{"stage"})

	// ResultSubmissions — отправки результатов на сервер по итогу.
	ResultSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musiclet_result_submissions_total",
		Help: "Result submissions to the task server by outcome",
	}, []string{"outcome"})

	// OutboxPending — число результатов, ожидающих повторной отправки.
	OutboxPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "musiclet_outbox_pending",
		Help: "Undelivered results parked in the local outbox",
	})
)
