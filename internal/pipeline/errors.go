package pipeline

import "errors"

// Ошибки стадий. Текст уходит на сервер задач.
var (
	ErrDownloadFailed = errors.New("audio download failed")
	ErrUploadFailed   = errors.New("audio upload failed")
	ErrSaveFailed     = errors.New("database save failed")
	ErrReloadFailed   = errors.New("could not reload saved music info")
)

// stageError — ошибка стадии с сохранённой причиной.
//
// Error() возвращает только публичный текст стадии, причина доступна через errors.Is/As.
type stageError struct {
	stage error
	cause error
}

func (e *stageError) Error() string {
	return e.stage.Error()
}

func (e *stageError) Unwrap() []error {
	return []error{e.stage, e.cause}
}
