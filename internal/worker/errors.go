package worker

import "errors"

// Ошибки воркера.
var (
	// ErrNoHandler — для вида запроса не зарегистрирован обработчик.
	ErrNoHandler = errors.New("no handler registered")

	// ErrRequestMismatch — обработчик получил запрос чужого вида.
	ErrRequestMismatch = errors.New("request kind mismatch")

	// ErrAlreadyRunning — Run вызван повторно.
	ErrAlreadyRunning = errors.New("worker already running")
)
