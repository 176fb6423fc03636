package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/musiclet/internal/domain"
)

// MusicRepo — репозиторий для работы с music_models.
//
// Все чтения фильтруют мягко удалённые записи (deleted_at IS NULL).
type MusicRepo struct {
	pool *pgxpool.Pool
}

// NewMusicRepo создаёт новый MusicRepo.
func NewMusicRepo(pool *pgxpool.Pool) *MusicRepo {
	return &MusicRepo{pool: pool}
}

const musicColumns = `
	id, music_id, name, COALESCE(artist, ''), COALESCE(album_name, ''),
	COALESCE(picture_url, ''), COALESCE(duration, 0), COALESCE(url, ''),
	COALESCE(lyric, ''), COALESCE(play_count, 0), created_at, updated_at, deleted_at
`

// Upsert создаёт запись или обновляет изменяемые поля существующей по music_id.
//
// id, created_at и play_count существующей записи не меняются, updated_at сдвигается.
// Мягко удалённая запись с тем же music_id восстанавливается.
func (r *MusicRepo) Upsert(ctx context.Context, m *domain.MusicRecord) error {
	query := `
		INSERT INTO music_models (music_id, name, artist, album_name, picture_url, duration, url, lyric)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (music_id) DO UPDATE
		SET name = EXCLUDED.name,
		    artist = EXCLUDED.artist,
		    album_name = EXCLUDED.album_name,
		    picture_url = EXCLUDED.picture_url,
		    duration = EXCLUDED.duration,
		    url = EXCLUDED.url,
		    lyric = EXCLUDED.lyric,
		    updated_at = clock_timestamp(),
		    deleted_at = NULL
	`
	_, err := r.pool.Exec(ctx, query,
		m.MusicID,
		m.Name,
		m.Artist,
		m.AlbumName,
		m.PictureURL,
		m.Duration,
		m.URL,
		m.Lyric,
	)
	if err != nil {
		return fmt.Errorf("upsert music %s: %w", m.MusicID, err)
	}
	return nil
}

// GetByMusicID возвращает неудалённую запись по music_id.
func (r *MusicRepo) GetByMusicID(ctx context.Context, musicID string) (*domain.MusicRecord, error) {
	query := `SELECT ` + musicColumns + `
		FROM music_models
		WHERE music_id = $1 AND deleted_at IS NULL
	`
	m, err := scanMusic(r.pool.QueryRow(ctx, query, musicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Search ищет записи по подстроке в name или artist без учёта регистра.
//
// Возвращает страницу (page с 1), отсортированную по play_count DESC, и общее число совпадений.
func (r *MusicRepo) Search(ctx context.Context, keyword string, page, pageSize int) ([]domain.MusicRecord, int64, error) {
	pattern := "%" + escapeLike(keyword) + "%"

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM music_models
		WHERE (name ILIKE $1 OR artist ILIKE $1) AND deleted_at IS NULL
	`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count music: %w", err)
	}

	if total == 0 {
		return []domain.MusicRecord{}, 0, nil
	}

	query := `SELECT ` + musicColumns + `
		FROM music_models
		WHERE (name ILIKE $1 OR artist ILIKE $1) AND deleted_at IS NULL
		ORDER BY play_count DESC NULLS LAST, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, pattern, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search music: %w", err)
	}
	defer rows.Close()

	records := []domain.MusicRecord{}
	for rows.Next() {
		m, err := scanMusic(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("search music: %w", err)
	}
	return records, total, nil
}

// --- Helpers ---

func scanMusic(row pgx.Row) (*domain.MusicRecord, error) {
	var m domain.MusicRecord
	err := row.Scan(
		&m.ID,
		&m.MusicID,
		&m.Name,
		&m.Artist,
		&m.AlbumName,
		&m.PictureURL,
		&m.Duration,
		&m.URL,
		&m.Lyric,
		&m.PlayCount,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan music: %w", err)
	}
	return &m, nil
}

// likeEscaper экранирует спецсимволы LIKE, чтобы keyword искался как литерал.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
