package domain

import (
	"strconv"
	"strings"
	"time"
)

// MusicRecord — запись о медиа в БД (таблица music_models).
//
// MusicID — натуральный ключ; удаление только мягкое через DeletedAt.
// Воркер никогда не удаляет записи.
type MusicRecord struct {
	// ID — внутренний serial primary key.
	ID int64

	// MusicID — внешний уникальный ключ (payload.id или bvid).
	MusicID string

	Name       string
	Artist     string
	AlbumName  string
	PictureURL string

	// Duration — длительность в секундах.
	Duration int64

	// URL — публичный адрес аудио в object store.
	URL string

	// Lyric — заполняется описанием медиа.
	Lyric string

	PlayCount int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// MusicView — публичная форма записи в ответе на media-task.
type MusicView struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	WebURL     string `json:"webUrl"`
	PictureURL string `json:"pictureUrl"`
	Duration   string `json:"duration"`
	Lyric      string `json:"lyric"`
	Artist     string `json:"artist"`
	Name       string `json:"name"`
	Album      string `json:"album"`
	PlayCount  string `json:"playCount"`
}

// View переводит запись в публичную форму.
func (m *MusicRecord) View() *MusicView {
	return &MusicView{
		Type:       "music",
		ID:         m.MusicID,
		URL:        m.URL,
		WebURL:     m.WebURL(),
		PictureURL: m.PictureURL,
		Duration:   strconv.FormatInt(m.Duration, 10),
		Lyric:      m.Lyric,
		Artist:     m.Artist,
		Name:       m.Name,
		Album:      m.AlbumName,
		PlayCount:  strconv.Itoa(m.PlayCount),
	}
}

// WebURL возвращает страницу bilibili для BV-идентификаторов,
// для остальных — адрес аудио.
func (m *MusicRecord) WebURL() string {
	if strings.HasPrefix(m.MusicID, "BV") {
		return BilibiliVideoURL + m.MusicID
	}
	return m.URL
}

// SourceDB — метка источника для результатов поиска по БД.
const SourceDB = "db"

// SearchItem — элемент результата поиска.
type SearchItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int64  `json:"duration"`
	Cover    string `json:"cover"`
	Source   string `json:"source"`
}

// SearchResult — страница результатов поиска.
type SearchResult struct {
	Data  []SearchItem `json:"data"`
	Total int64        `json:"total"`
}

// NewSearchResult собирает страницу поиска. Data никогда не nil,
// чтобы пустой результат сериализовался как [].
func NewSearchResult(records []MusicRecord, total int64) *SearchResult {
	items := make([]SearchItem, 0, len(records))
	for i := range records {
		m := &records[i]
		items = append(items, SearchItem{
			ID:       m.MusicID,
			Name:     m.Name,
			Artist:   m.Artist,
			Album:    m.AlbumName,
			Duration: m.Duration,
			Cover:    m.PictureURL,
			Source:   SourceDB,
		})
	}
	return &SearchResult{Data: items, Total: total}
}
