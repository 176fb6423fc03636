package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Типы task, которые понимает воркер.
const (
	TaskTypeURLMusic       = "url_common:get_music"
	TaskTypeBilibiliMusic  = "bilibili:get_music"
	TaskTypeBilibiliSearch = "bilibili:search_music"
)

// BilibiliVideoURL — префикс страницы видео bilibili.
const BilibiliVideoURL = "https://www.bilibili.com/video/"

// Значения пагинации по умолчанию.
const (
	DefaultPage     = "1"
	DefaultPageSize = "20"
)

// RequestKind — вид обработчика, которому адресован запрос.
type RequestKind string

const (
	KindMusic  RequestKind = "music"
	KindSearch RequestKind = "search"
)

// Request — провалидированный payload task.
//
// Реализации: MusicRequest, SearchRequest.
// Создаётся один раз через ParseRequest, обработчики не читают Task.Payload напрямую.
type Request interface {
	Kind() RequestKind
}

// MusicRequest — запрос на загрузку медиа по URL.
type MusicRequest struct {
	// URL — адрес медиа для resolver'а.
	URL string

	// Key — логический ID записи в БД (не совпадает с ID медиа у resolver'а).
	Key string
}

func (MusicRequest) Kind() RequestKind { return KindMusic }

// SearchRequest — запрос на поиск по сохранённым записям.
type SearchRequest struct {
	Keyword  string
	Page     int
	PageSize int
}

func (SearchRequest) Kind() RequestKind { return KindSearch }

// Offset возвращает смещение страницы.
func (r SearchRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// ParseRequest разбирает и валидирует payload task по её типу.
//
// Task не изменяется: производный URL для bilibili хранится только в MusicRequest.
func ParseRequest(task *Task) (Request, error) {
	p := task.Payload

	switch task.Type {
	case TaskTypeURLMusic:
		url := p["url"]
		if url == "" {
			return nil, &ParamError{Param: "url"}
		}
		id := p["id"]
		if id == "" {
			return nil, &ParamError{Param: "id"}
		}
		return MusicRequest{URL: url, Key: id}, nil

	case TaskTypeBilibiliMusic:
		bvid := p["bvid"]
		if bvid == "" {
			return nil, &ParamError{Param: "bvid"}
		}
		return MusicRequest{URL: BilibiliVideoURL + bvid, Key: bvid}, nil

	case TaskTypeBilibiliSearch:
		keyword := p["keyword"]
		if keyword == "" {
			return nil, &ParamError{Param: "keyword"}
		}
		page, err := parsePositive(p, "page", DefaultPage)
		if err != nil {
			return nil, err
		}
		pageSize, err := parsePositive(p, "pageSize", DefaultPageSize)
		if err != nil {
			return nil, err
		}
		return SearchRequest{Keyword: keyword, Page: page, PageSize: pageSize}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
}

var errNotPositive = errors.New("must be a positive integer")

// parsePositive читает целое число >= 1; пустое или отсутствующее значение заменяется defaultVal.
func parsePositive(p map[string]string, key, defaultVal string) (int, error) {
	raw, ok := p[key]
	if !ok || raw == "" {
		raw = defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParamError{Param: key, Err: err}
	}
	if n < 1 {
		return 0, &ParamError{Param: key, Err: errNotPositive}
	}
	return n, nil
}
