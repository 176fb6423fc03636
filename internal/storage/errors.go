package storage

import "errors"

// Ошибки загрузки.
var (
	// ErrUnsupported — неизвестный storage.type.
	ErrUnsupported = errors.New("unsupported storage type")

	// ErrUpload — object store отклонил загрузку.
	ErrUpload = errors.New("upload failed")
)
