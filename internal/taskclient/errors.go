package taskclient

import (
	"errors"
	"fmt"
)

// Ошибки клиента сервера задач.
var (
	// ErrUnexpectedStatus — сервер ответил кодом вне контракта.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrDecode — тело ответа не разбирается как task.
	ErrDecode = errors.New("decode response")

	// ErrNoServerURL — не задан адрес сервера.
	ErrNoServerURL = errors.New("server url is required")
)

// StatusError — ответ сервера с неожиданным HTTP-кодом.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %v: HTTP %d", e.Op, ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// IsClientError сообщает, отклонил ли сервер запрос как некорректный (4xx).
// Такой запрос бессмысленно повторять.
func (e *StatusError) IsClientError() bool {
	return e.Code >= 400 && e.Code < 500
}
