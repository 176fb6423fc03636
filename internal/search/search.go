// Package search отвечает на запросы поиска по сохранённым записям.
package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// ErrSearchFailed — хранилище не ответило. Текст уходит на сервер задач.
var ErrSearchFailed = errors.New("search failed")

// Searcher — поиск по name/artist с пагинацией.
type Searcher interface {
	Search(ctx context.Context, keyword string, page, pageSize int) ([]domain.MusicRecord, int64, error)
}

// Handler выполняет поиск для task bilibili:search_music.
type Handler struct {
	store   Searcher
	timeout time.Duration
	logger  *slog.Logger
}

// NewHandler создаёт Handler. timeout ограничивает запрос к БД (0 — без ограничения).
func NewHandler(store Searcher, timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, timeout: timeout, logger: logger}
}

// Search возвращает страницу результатов и общее число совпадений.
func (h *Handler) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	logger := telemetry.FromContextOr(ctx, h.logger)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	records, total, err := h.store.Search(ctx, req.Keyword, req.Page, req.PageSize)
	if err != nil {
		logger.Error("search query failed", "keyword", req.Keyword, "error", err)
		return nil, ErrSearchFailed
	}

	logger.Debug("search done",
		"keyword", req.Keyword,
		"page", req.Page,
		"page_size", req.PageSize,
		"total", total,
	)
	return domain.NewSearchResult(records, total), nil
}
