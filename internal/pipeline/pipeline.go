package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/resolver"
	"github.com/shaiso/musiclet/internal/storage"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// Store — хранилище записей о медиа.
type Store interface {
	Upsert(ctx context.Context, m *domain.MusicRecord) error
	GetByMusicID(ctx context.Context, musicID string) (*domain.MusicRecord, error)
}

// Timeouts ограничивают отдельные стадии. 0 — без ограничения.
type Timeouts struct {
	Resolve  time.Duration
	Upload   time.Duration
	Database time.Duration
}

// Config — конфигурация Pipeline.
type Config struct {
	Resolver resolver.Resolver
	Uploader storage.Uploader
	Store    Store
	Timeouts Timeouts

	// Remove удаляет локальный файл (default: os.Remove).
	Remove func(path string) error

	// Logger
	Logger *slog.Logger
}

// Pipeline загружает медиа по URL в object store и БД.
type Pipeline struct {
	resolver resolver.Resolver
	uploader storage.Uploader
	store    Store
	timeouts Timeouts
	remove   func(string) error
	logger   *slog.Logger
}

// New создаёт Pipeline.
func New(cfg Config) *Pipeline {
	remove := cfg.Remove
	if remove == nil {
		remove = os.Remove
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver: cfg.Resolver,
		uploader: cfg.Uploader,
		store:    cfg.Store,
		timeouts: cfg.Timeouts,
		remove:   remove,
		logger:   logger,
	}
}

// Ingest скачивает медиа по url, сохраняет запись под ключом key и возвращает её публичную форму.
func (p *Pipeline) Ingest(ctx context.Context, url, key string) (*domain.MusicView, error) {
	logger := telemetry.FromContextOr(ctx, p.logger).With("key", key)

	// 1. Resolve
	media, err := p.resolve(ctx, url)
	if err != nil {
		return nil, p.fail(logger, "resolve", ErrDownloadFailed, err)
	}

	// 2. Обложка (best effort)
	picture := p.relayThumbnail(ctx, logger, media)

	// 3–5. Аудио и запись; локальное аудио удаляется до перечитывания.
	if err := p.persist(ctx, logger, media, key, picture); err != nil {
		return nil, err
	}

	// 6. Перечитывание
	dbCtx, cancel := withTimeout(ctx, p.timeouts.Database)
	defer cancel()

	saved, err := p.store.GetByMusicID(dbCtx, key)
	if err != nil {
		return nil, p.fail(logger, "reload", ErrReloadFailed, err)
	}

	logger.Info("media ingested", "media_id", media.ID, "url", saved.URL)
	return saved.View(), nil
}

// persist загружает аудио и пишет запись. Локальное аудио удаляется при любом исходе.
func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, media *resolver.Media, key, picture string) error {
	defer p.removeFile(logger, media.AudioPath, "audio")

	upCtx, cancel := withTimeout(ctx, p.timeouts.Upload)
	defer cancel()

	audioURL, err := p.uploader.UploadAudio(upCtx, media.AudioPath, media.ID+".mp3")
	if err != nil {
		return p.fail(logger, "upload", ErrUploadFailed, err)
	}

	record := &domain.MusicRecord{
		MusicID:    key,
		Name:       media.Title,
		Artist:     media.Uploader,
		AlbumName:  media.Album,
		PictureURL: picture,
		Duration:   media.Duration,
		URL:        audioURL,
		Lyric:      media.Description,
	}

	dbCtx, cancelDB := withTimeout(ctx, p.timeouts.Database)
	defer cancelDB()

	if err := p.store.Upsert(dbCtx, record); err != nil {
		return p.fail(logger, "save", ErrSaveFailed, err)
	}
	return nil
}

// resolve скачивает медиа с ограничением по времени.
func (p *Pipeline) resolve(ctx context.Context, url string) (*resolver.Media, error) {
	resolveCtx, cancel := withTimeout(ctx, p.timeouts.Resolve)
	defer cancel()
	return p.resolver.Resolve(resolveCtx, url)
}

// relayThumbnail загружает локальную обложку и возвращает адрес для picture_url.
//
// При отсутствии файла или ошибке загрузки возвращается адрес обложки у источника.
func (p *Pipeline) relayThumbnail(ctx context.Context, logger *slog.Logger, media *resolver.Media) string {
	if media.ThumbnailPath == "" {
		return media.ThumbnailURL
	}
	defer p.removeFile(logger, media.ThumbnailPath, "thumbnail")

	upCtx, cancel := withTimeout(ctx, p.timeouts.Upload)
	defer cancel()

	name := media.ID + "_thumbnail" + filepath.Ext(media.ThumbnailPath)
	url, err := p.uploader.UploadFile(upCtx, media.ThumbnailPath, name)
	if err != nil {
		telemetry.PipelineFailures.WithLabelValues("thumbnail").Inc()
		logger.Warn("thumbnail upload failed, keeping source url",
			"thumbnail_url", media.ThumbnailURL,
			"error", err,
		)
		return media.ThumbnailURL
	}
	return url
}

// removeFile удаляет локальный файл; ошибка только логируется.
func (p *Pipeline) removeFile(logger *slog.Logger, path, kind string) {
	if path == "" {
		return
	}
	if err := p.remove(path); err != nil {
		logger.Warn("failed to remove local file", "kind", kind, "path", path, "error", err)
		return
	}
	logger.Debug("local file removed", "kind", kind, "path", path)
}

// fail логирует ошибку стадии и возвращает её публичную форму.
func (p *Pipeline) fail(logger *slog.Logger, stage string, public, cause error) error {
	telemetry.PipelineFailures.WithLabelValues(stage).Inc()
	logger.Error("pipeline stage failed", "stage", stage, "error", cause)
	return &stageError{stage: public, cause: cause}
}

// withTimeout добавляет таймаут, если d > 0.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
