package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/shaiso/musiclet/internal/config"
)

// Uploader загружает локальный файл под именем name и возвращает публичный URL.
type Uploader interface {
	// UploadAudio загружает основной аудиофайл.
	UploadAudio(ctx context.Context, path, name string) (string, error)

	// UploadFile загружает вспомогательный файл (например, обложку).
	UploadFile(ctx context.Context, path, name string) (string, error)
}

// AudioContentType — тип содержимого аудио после перекодирования в mp3.
const AudioContentType = "audio/mpeg"

// New создаёт Uploader по storage.type.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	switch cfg.Type {
	case "s3":
		return NewS3(ctx, cfg.S3)
	case "qiniu":
		return NewQiniu(cfg.Qiniu), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, cfg.Type)
	}
}

// contentType определяет тип содержимого по расширению name.
func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// objectKey добавляет префикс бакета к имени объекта.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimRight(prefix, "/") + "/" + name
}
