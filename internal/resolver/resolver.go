package resolver

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"
)

// Media — результат resolve: метаданные и локальные файлы.
type Media struct {
	// ID — идентификатор медиа у источника (или md5 от URL, если источник его не дал).
	ID string

	Title       string
	Uploader    string
	Album       string
	Duration    int64 // секунды
	Description string

	// ThumbnailURL — адрес обложки у источника.
	ThumbnailURL string

	// AudioPath — локальный аудиофайл. Удаляет вызывающий.
	AudioPath string

	// ThumbnailPath — локальная обложка; пустая, если не скачалась. Удаляет вызывающий.
	ThumbnailPath string
}

// Resolver скачивает медиа по URL.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*Media, error)
}

// Расширения, которые ищутся после загрузки, в порядке приоритета.
var (
	audioExts     = []string{".mp3", ".m4a", ".webm", ".opus"}
	thumbnailExts = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// placeholderID — что yt-dlp подставляет в %(id)s, если у медиа нет id.
const placeholderID = "NA"

// runFunc запускает внешнюю команду и возвращает её stdout (в том числе при ошибке).
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config — конфигурация YTDLP.
type Config struct {
	// Binary — путь к yt-dlp (default: "yt-dlp").
	Binary string

	// DownloadDir — каталог для временных файлов (default: "./downloads").
	DownloadDir string

	// RateLimit — запусков в секунду; 0 — без ограничения.
	RateLimit float64
	Burst     int

	// ExtraArgs добавляются перед URL (cookies, proxy и т.п.).
	ExtraArgs []string

	// Logger
	Logger *slog.Logger
}

// YTDLP — Resolver поверх бинарника yt-dlp.
type YTDLP struct {
	binary  string
	dir     string
	extra   []string
	limiter *rate.Limiter
	run     runFunc
	logger  *slog.Logger
}

// NewYTDLP создаёт resolver.
func NewYTDLP(cfg Config) *YTDLP {
	binary := cfg.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	dir := cfg.DownloadDir
	if dir == "" {
		dir = "./downloads"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &YTDLP{
		binary:  binary,
		dir:     dir,
		extra:   cfg.ExtraArgs,
		limiter: rate.NewLimiter(limit, burst),
		run:     execCommand,
		logger:  logger,
	}
}

// mediaInfo — поля --dump-json, которые нужны воркеру.
type mediaInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Album       string  `json:"album"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
}

// Resolve скачивает аудио и обложку и возвращает метаданные.
//
// При ошибке после загрузки удаляет файлы, которые успел оставить yt-dlp.
func (y *YTDLP) Resolve(ctx context.Context, url string) (*Media, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrResolve, err)
	}
	if err := os.MkdirAll(y.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create download dir: %v", ErrResolve, err)
	}

	before := y.snapshot()

	out, err := y.run(ctx, y.binary, y.args(url)...)
	if err != nil {
		// Метаданные могли успеть выйти в stdout до сбоя загрузки.
		if info, perr := parseInfo(out); perr == nil && info.ID != "" {
			y.cleanup(info.ID)
		} else {
			y.cleanupNew(before)
		}
		return nil, fmt.Errorf("%w: %v", ErrResolve, err)
	}

	info, err := parseInfo(out)
	if err != nil {
		y.cleanupNew(before)
		return nil, err
	}

	fileID := info.ID
	if fileID == "" {
		fileID = placeholderID
	}

	audio := y.probe(fileID, audioExts)
	if audio == "" {
		y.cleanup(fileID)
		return nil, fmt.Errorf("%w: %s", ErrNoAudio, fileID)
	}

	id := info.ID
	if id == "" {
		id = idFromURL(url)
	}

	title := info.Title
	if title == "" {
		title = "Unknown"
	}
	uploader := info.Uploader
	if uploader == "" {
		uploader = "Unknown"
	}

	media := &Media{
		ID:            id,
		Title:         title,
		Uploader:      uploader,
		Album:         info.Album,
		Duration:      int64(math.Round(info.Duration)),
		Description:   info.Description,
		ThumbnailURL:  info.Thumbnail,
		AudioPath:     audio,
		ThumbnailPath: y.probe(fileID, thumbnailExts),
	}

	y.logger.Info("media resolved", "media_id", media.ID, "title", media.Title, "audio", media.AudioPath)
	return media, nil
}

// args собирает аргументы yt-dlp: bestaudio → mp3, обложка рядом, JSON с метаданными в stdout.
func (y *YTDLP) args(url string) []string {
	args := []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--write-thumbnail",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--dump-json",
		"--no-simulate",
		"--output", filepath.Join(y.dir, "%(id)s.%(ext)s"),
	}
	args = append(args, y.extra...)
	return append(args, "--", url)
}

// probe возвращает первый существующий файл "<id><ext>" из exts.
func (y *YTDLP) probe(id string, exts []string) string {
	for _, ext := range exts {
		path := filepath.Join(y.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// cleanup удаляет все файлы, которые yt-dlp мог оставить для id.
func (y *YTDLP) cleanup(id string) {
	matches, err := filepath.Glob(filepath.Join(y.dir, id+".*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			y.logger.Warn("failed to remove partial download", "path", path, "error", err)
		}
	}
}

// snapshot запоминает имена файлов в каталоге загрузок.
func (y *YTDLP) snapshot() map[string]bool {
	entries, err := os.ReadDir(y.dir)
	if err != nil {
		return nil
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

// cleanupNew удаляет файлы, появившиеся после snapshot.
// Используется, когда id медиа неизвестен. Воркер запускает yt-dlp по одному.
func (y *YTDLP) cleanupNew(before map[string]bool) {
	if before == nil {
		y.logger.Warn("download dir was not readable before run, leftover files may remain", "dir", y.dir)
		return
	}
	entries, err := os.ReadDir(y.dir)
	if err != nil {
		y.logger.Warn("failed to list download dir", "dir", y.dir, "error", err)
		return
	}
	for _, e := range entries {
		if before[e.Name()] || e.IsDir() {
			continue
		}
		path := filepath.Join(y.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			y.logger.Warn("failed to remove orphaned download", "path", path, "error", err)
		}
	}
}

// --- Helpers ---

// parseInfo берёт последнюю непустую строку stdout: yt-dlp пишет по JSON на строку.
func parseInfo(out []byte) (*mediaInfo, error) {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrBadInfo)
	}

	var info mediaInfo
	if err := json.Unmarshal(last, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInfo, err)
	}
	return &info, nil
}

// idFromURL — запасной id медиа: md5 от URL.
func idFromURL(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// execCommand запускает команду; stderr попадает в текст ошибки.
func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
