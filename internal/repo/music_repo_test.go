package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/musiclet/internal/domain"
)

// testPool подключается к БД из TEST_DB_URL и очищает music_models.
// Без TEST_DB_URL тест пропускается.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE music_models RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_music_models" {
		t.Errorf("unexpected first migration: %d %s", migrations[0].Version, migrations[0].Name)
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Errorf("migrations not sorted: %d after %d", migrations[i].Version, migrations[i-1].Version)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"song", "song"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := testPool(t)

	applied, err := Migrate(context.Background(), pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations on second run, got %d", applied)
	}
}

func TestMusicRepo_UpsertIdempotent(t *testing.T) {
	pool := testPool(t)
	r := NewMusicRepo(pool)
	ctx := context.Background()

	rec := &domain.MusicRecord{MusicID: "BV1xx", Name: "Song", Artist: "Up", Duration: 213, URL: "https://cdn/BV1xx.mp3"}
	if err := r.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := r.GetByMusicID(ctx, "BV1xx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	rec.Name = "Song (remaster)"
	if err := r.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, err := r.GetByMusicID(ctx, "BV1xx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected same id %d, got %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at not advanced: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Name != "Song (remaster)" {
		t.Errorf("expected updated name, got %q", second.Name)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM music_models`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestMusicRepo_SoftDeleted(t *testing.T) {
	pool := testPool(t)
	r := NewMusicRepo(pool)
	ctx := context.Background()

	if err := r.Upsert(ctx, &domain.MusicRecord{MusicID: "gone", Name: "Gone"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE music_models SET deleted_at = now() WHERE music_id = 'gone'`); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := r.GetByMusicID(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, total, err := r.Search(ctx, "Gone", 1, 20); err != nil || total != 0 {
		t.Errorf("expected deleted row hidden from search, got total=%d err=%v", total, err)
	}

	// Повторная загрузка восстанавливает запись.
	if err := r.Upsert(ctx, &domain.MusicRecord{MusicID: "gone", Name: "Gone"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := r.GetByMusicID(ctx, "gone"); err != nil {
		t.Errorf("expected revived record, got %v", err)
	}
}

func TestMusicRepo_SearchPagination(t *testing.T) {
	pool := testPool(t)
	r := NewMusicRepo(pool)
	ctx := context.Background()

	// play_count: m1=50, m2=40, m3=30, m4=20, m5=10.
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("m%d", i)
		if err := r.Upsert(ctx, &domain.MusicRecord{MusicID: id, Name: "Love Song " + id}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if _, err := pool.Exec(ctx, `UPDATE music_models SET play_count = $1 WHERE music_id = $2`, 60-i*10, id); err != nil {
			t.Fatalf("set play_count: %v", err)
		}
	}
	if err := r.Upsert(ctx, &domain.MusicRecord{MusicID: "other", Name: "Unrelated"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, total, err := r.Search(ctx, "love", 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(records) != 2 || records[0].MusicID != "m3" || records[1].MusicID != "m4" {
		t.Errorf("expected [m3 m4], got %v", records)
	}
}

func TestMusicRepo_SearchLiteralWildcards(t *testing.T) {
	pool := testPool(t)
	r := NewMusicRepo(pool)
	ctx := context.Background()

	for _, name := range []string{"100% Love", "1000 Love"} {
		if err := r.Upsert(ctx, &domain.MusicRecord{MusicID: name, Name: name}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	records, total, err := r.Search(ctx, "100%", 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(records) != 1 || records[0].Name != "100% Love" {
		t.Errorf("expected only literal match, got total=%d records=%v", total, records)
	}
}
