package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/musiclet/internal/domain"
)

// Handler обрабатывает провалидированный запрос и возвращает значение для Result.Result.
//
// Текст ошибки уходит на сервер задач как Result.Error.
type Handler interface {
	Handle(ctx context.Context, req domain.Request) (any, error)
}

// HandlerFunc — функция-адаптер для Handler.
type HandlerFunc func(ctx context.Context, req domain.Request) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, req domain.Request) (any, error) {
	return f(ctx, req)
}

// Registry — реестр обработчиков по виду запроса.
type Registry struct {
	handlers map[domain.RequestKind]Handler
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.RequestKind]Handler)}
}

// Register добавляет обработчик для вида запроса.
func (r *Registry) Register(kind domain.RequestKind, h Handler) {
	r.handlers[kind] = h
}

// Get возвращает обработчик для вида запроса.
func (r *Registry) Get(kind domain.RequestKind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return h, nil
}

// Ingester — загрузка медиа (pipeline.Pipeline).
type Ingester interface {
	Ingest(ctx context.Context, url, key string) (*domain.MusicView, error)
}

// Finder — поиск по записям (search.Handler).
type Finder interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

// MusicHandler обрабатывает MusicRequest через Ingester.
func MusicHandler(p Ingester) Handler {
	return HandlerFunc(func(ctx context.Context, req domain.Request) (any, error) {
		r, ok := req.(domain.MusicRequest)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRequestMismatch, req.Kind())
		}
		view, err := p.Ingest(ctx, r.URL, r.Key)
		if err != nil {
			return nil, err
		}
		return view, nil
	})
}

// SearchHandler обрабатывает SearchRequest через Finder.
func SearchHandler(f Finder) Handler {
	return HandlerFunc(func(ctx context.Context, req domain.Request) (any, error) {
		r, ok := req.(domain.SearchRequest)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRequestMismatch, req.Kind())
		}
		res, err := f.Search(ctx, r)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}
