package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// --- Task / Result ---

func TestTask_UnmarshalMissingPayload(t *testing.T) {
	var task Task
	if err := json.Unmarshal([]byte(`{"id":"1","type":"bilibili:get_music"}`), &task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Payload == nil {
		t.Fatal("payload should default to empty map")
	}
	if len(task.Payload) != 0 {
		t.Errorf("expected empty payload, got %v", task.Payload)
	}
}

func TestTask_UnmarshalPayload(t *testing.T) {
	var task Task
	data := `{"id":"7","type":"url_common:get_music","payload":{"id":"abc","url":"https://example.com/v"}}`
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "7" || task.Type != TaskTypeURLMusic {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.Payload["url"] != "https://example.com/v" {
		t.Errorf("expected url in payload, got %v", task.Payload)
	}
}

func TestResult_WireSuccessOmitsError(t *testing.T) {
	r := NewResult("42")
	r.Succeed(map[string]string{"k": "v"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wire map[string]any
	json.Unmarshal(data, &wire)

	if _, ok := wire["error"]; ok {
		t.Errorf("error field should be omitted, got %s", data)
	}
	if wire["id"] != "42" || wire["success"] != true {
		t.Errorf("unexpected wire form: %s", data)
	}
	if _, ok := wire["result"]; !ok {
		t.Errorf("result field should be present, got %s", data)
	}
}

func TestResult_WireFailureOmitsResult(t *testing.T) {
	r := NewResult("42")
	r.Fail("audio upload failed")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(string(data), `"result"`) {
		t.Errorf("result field should be omitted, got %s", data)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("wire form should not contain null, got %s", data)
	}
	if !strings.Contains(string(data), `"success":false`) {
		t.Errorf("success=false should be present, got %s", data)
	}
}

func TestResult_FailAfterSucceed(t *testing.T) {
	r := NewResult("1")
	r.Succeed("x")
	r.Fail("boom")

	if r.Success || r.Result != nil || r.Error != "boom" {
		t.Errorf("unexpected result: %+v", r)
	}
	if OutcomeOf(r) != OutcomeFailed {
		t.Errorf("expected FAILED outcome")
	}
}

// --- ParseRequest ---

func TestParseRequest_URLMusic(t *testing.T) {
	task := &Task{ID: "1", Type: TaskTypeURLMusic, Payload: map[string]string{
		"id":  "song-1",
		"url": "https://example.com/watch?v=1",
	}}

	req, err := ParseRequest(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	music, ok := req.(MusicRequest)
	if !ok {
		t.Fatalf("expected MusicRequest, got %T", req)
	}
	if music.URL != "https://example.com/watch?v=1" || music.Key != "song-1" {
		t.Errorf("unexpected request: %+v", music)
	}
}

func TestParseRequest_BilibiliDerivesURL(t *testing.T) {
	task := &Task{ID: "1", Type: TaskTypeBilibiliMusic, Payload: map[string]string{"bvid": "BV1xx"}}

	req, err := ParseRequest(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	music := req.(MusicRequest)
	if music.URL != "https://www.bilibili.com/video/BV1xx" {
		t.Errorf("unexpected url: %s", music.URL)
	}
	if music.Key != "BV1xx" {
		t.Errorf("unexpected key: %s", music.Key)
	}

	// Task не изменяется
	if _, ok := task.Payload["url"]; ok {
		t.Error("payload should not be mutated")
	}
}

func TestParseRequest_MissingParams(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantMsg string
	}{
		{"url missing", Task{Type: TaskTypeURLMusic, Payload: map[string]string{"id": "x"}}, "missing url parameter"},
		{"url empty", Task{Type: TaskTypeURLMusic, Payload: map[string]string{"id": "x", "url": ""}}, "missing url parameter"},
		{"id missing", Task{Type: TaskTypeURLMusic, Payload: map[string]string{"url": "u"}}, "missing id parameter"},
		{"bvid missing", Task{Type: TaskTypeBilibiliMusic, Payload: map[string]string{}}, "missing bvid parameter"},
		{"keyword missing", Task{Type: TaskTypeBilibiliSearch, Payload: map[string]string{"page": "abc"}}, "missing keyword parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(&tt.task)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, err.Error())
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestParseRequest_SearchDefaults(t *testing.T) {
	task := &Task{Type: TaskTypeBilibiliSearch, Payload: map[string]string{"keyword": "jay"}}

	req, err := ParseRequest(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	search := req.(SearchRequest)
	if search.Page != 1 || search.PageSize != 20 {
		t.Errorf("expected defaults 1/20, got %d/%d", search.Page, search.PageSize)
	}
	if search.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", search.Offset())
	}
}

func TestParseRequest_SearchPagination(t *testing.T) {
	task := &Task{Type: TaskTypeBilibiliSearch, Payload: map[string]string{
		"keyword":  "jay",
		"page":     "3",
		"pageSize": "10",
	}}

	req, err := ParseRequest(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	search := req.(SearchRequest)
	if search.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", search.Offset())
	}
}

func TestParseRequest_SearchInvalidPagination(t *testing.T) {
	tests := []struct {
		payload map[string]string
		prefix  string
	}{
		{map[string]string{"keyword": "k", "page": "abc"}, "invalid page parameter: "},
		{map[string]string{"keyword": "k", "pageSize": "1.5"}, "invalid pageSize parameter: "},
		{map[string]string{"keyword": "k", "page": "0"}, "invalid page parameter: "},
		{map[string]string{"keyword": "k", "pageSize": "-3"}, "invalid pageSize parameter: "},
	}

	for _, tt := range tests {
		_, err := ParseRequest(&Task{Type: TaskTypeBilibiliSearch, Payload: tt.payload})
		if err == nil {
			t.Errorf("payload %v: expected error", tt.payload)
			continue
		}
		if !strings.HasPrefix(err.Error(), tt.prefix) {
			t.Errorf("payload %v: expected prefix %q, got %q", tt.payload, tt.prefix, err.Error())
		}
	}
}

func TestParseRequest_UnknownType(t *testing.T) {
	_, err := ParseRequest(&Task{Type: "netease:get_music"})
	if !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("expected ErrUnknownTaskType, got %v", err)
	}
	if err.Error() != "unknown task type: netease:get_music" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

// --- Views ---

func TestMusicRecord_View(t *testing.T) {
	m := &MusicRecord{
		MusicID:    "BV1xx",
		Name:       "Song",
		Artist:     "Uploader",
		AlbumName:  "Album",
		PictureURL: "https://cdn/pic.jpg",
		Duration:   215,
		URL:        "https://cdn/BV1xx.mp3",
		Lyric:      "desc",
		PlayCount:  9,
	}

	v := m.View()
	if v.Type != "music" {
		t.Errorf("expected type music, got %s", v.Type)
	}
	if v.Duration != "215" || v.PlayCount != "9" {
		t.Errorf("expected stringified numbers, got %s / %s", v.Duration, v.PlayCount)
	}
	if v.WebURL != "https://www.bilibili.com/video/BV1xx" {
		t.Errorf("unexpected webUrl: %s", v.WebURL)
	}
}

func TestMusicRecord_WebURLNonBilibili(t *testing.T) {
	m := &MusicRecord{MusicID: "yt-1", URL: "https://cdn/yt-1.mp3"}
	if m.WebURL() != "https://cdn/yt-1.mp3" {
		t.Errorf("expected audio url fallback, got %s", m.WebURL())
	}
}

func TestNewSearchResult_EmptyIsArray(t *testing.T) {
	res := NewSearchResult(nil, 0)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"data":[],"total":0}` {
		t.Errorf("unexpected json: %s", data)
	}
}

func TestNewSearchResult_MapsSource(t *testing.T) {
	res := NewSearchResult([]MusicRecord{{MusicID: "a", Name: "n", PictureURL: "c", Duration: 3}}, 5)

	if len(res.Data) != 1 || res.Total != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	item := res.Data[0]
	if item.Source != "db" || item.Cover != "c" || item.ID != "a" || item.Duration != 3 {
		t.Errorf("unexpected item: %+v", item)
	}
}
