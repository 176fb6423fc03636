package outbox

import "errors"

// Ошибки outbox.
var (
	// ErrOpen — не удалось открыть или инициализировать базу.
	ErrOpen = errors.New("open outbox")

	// ErrSchedule — некорректное cron-выражение outbox.replay.
	ErrSchedule = errors.New("invalid replay schedule")
)
