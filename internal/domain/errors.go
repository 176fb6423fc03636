package domain

import (
	"errors"
	"fmt"
)

// Ошибки разбора task.
var (
	// ErrUnknownTaskType — для типа task нет обработчика.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInvalidPayload — payload не прошёл валидацию.
	ErrInvalidPayload = errors.New("invalid payload")
)

// ParamError — ошибка валидации одного параметра payload.
//
// Текст ошибки уходит на сервер как Result.Error, поэтому формат фиксирован:
//   - "missing url parameter" — параметр отсутствует или пуст
//   - "invalid page parameter: <причина>" — параметр не разбирается
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s parameter: %v", e.Param, e.Err)
	}
	return "missing " + e.Param + " parameter"
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInvalidPayload).
func (e *ParamError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidPayload, e.Err}
	}
	return []error{ErrInvalidPayload}
}
