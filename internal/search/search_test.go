package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/telemetry"
)

type fakeSearcher struct {
	records []domain.MusicRecord
	total   int64
	err     error

	keyword        string
	page, pageSize int
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string, page, pageSize int) ([]domain.MusicRecord, int64, error) {
	f.keyword, f.page, f.pageSize = keyword, page, pageSize
	return f.records, f.total, f.err
}

func TestSearch(t *testing.T) {
	store := &fakeSearcher{
		records: []domain.MusicRecord{
			{MusicID: "BV1", Name: "Love", Artist: "A", Duration: 100, PictureURL: "https://c/1.jpg"},
			{MusicID: "BV2", Name: "Lovely", Artist: "B", Duration: 200},
		},
		total: 7,
	}
	h := NewHandler(store, 0, telemetry.Discard())

	res, err := h.Search(context.Background(), domain.SearchRequest{Keyword: "love", Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.keyword != "love" || store.page != 2 || store.pageSize != 2 {
		t.Errorf("unexpected store call: %q %d %d", store.keyword, store.page, store.pageSize)
	}
	if res.Total != 7 || len(res.Data) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	first := res.Data[0]
	if first.ID != "BV1" || first.Cover != "https://c/1.jpg" || first.Source != "db" || first.Duration != 100 {
		t.Errorf("unexpected item: %+v", first)
	}
}

func TestSearch_Empty(t *testing.T) {
	h := NewHandler(&fakeSearcher{}, 0, telemetry.Discard())

	res, err := h.Search(context.Background(), domain.SearchRequest{Keyword: "zzz", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := json.Marshal(res)
	if string(data) != `{"data":[],"total":0}` {
		t.Errorf("expected empty page, got %s", data)
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	h := NewHandler(&fakeSearcher{err: errors.New("connection refused")}, 0, telemetry.Discard())

	_, err := h.Search(context.Background(), domain.SearchRequest{Keyword: "x", Page: 1, PageSize: 20})
	if !errors.Is(err, ErrSearchFailed) || err.Error() != "search failed" {
		t.Errorf("expected search failed, got %v", err)
	}
}
