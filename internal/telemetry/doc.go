// Package telemetry обеспечивает наблюдаемость воркера.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Логи пишутся в stdout в едином формате, метрики экспортируются
// на /metrics вместе с /healthz.
package telemetry
