package resolver

import "errors"

// Ошибки resolver'а.
var (
	// ErrResolve — yt-dlp завершился ошибкой.
	ErrResolve = errors.New("resolve failed")

	// ErrBadInfo — вывод --dump-json не разбирается.
	ErrBadInfo = errors.New("malformed media info")

	// ErrNoAudio — после загрузки не найден аудиофайл.
	ErrNoAudio = errors.New("audio file not found")
)
