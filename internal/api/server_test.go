package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lianbo/internal/domain"
	"lianbo/internal/extract"
	"lianbo/internal/storage"
	"lianbo/internal/usecase"
)

type fakeStore struct {
	records []domain.NewsRecord
	fail    bool
}

func (s *fakeStore) Upsert(_ context.Context, rec domain.NewsRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) HasDay(_ context.Context, date string) (bool, error) {
	for _, rec := range s.records {
		if rec.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListByDate(_ context.Context, date string) ([]domain.NewsRecord, error) {
	if s.fail {
		return nil, errors.New("database gone")
	}
	var out []domain.NewsRecord
	for _, rec := range s.records {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (domain.NewsRecord, error) {
	if s.fail {
		return domain.NewsRecord{}, errors.New("database gone")
	}
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.NewsRecord{}, storage.ErrNotFound
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}

func testRecords() []domain.NewsRecord {
	return []domain.NewsRecord{
		{ID: 1, Date: "2024-01-01", Title: "第一条新闻", Link: "https://tv.cctv.com/a", ItemNumber: "1/2", TotalItems: 2, Content: "第一条正文"},
		{ID: 2, Date: "2024-01-01", Title: "国内联播快讯", Link: "https://tv.cctv.com/b", ItemNumber: "2/2", TotalItems: 2, Content: "快讯正文"},
	}
}

func newTestServer(store *fakeStore, fetcher *fakeFetcher) *Server {
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	var detail usecase.DetailExtractor = extract.NewDetailExtractor(fetcher, nil)
	return New(store, fetcher, detail, nil)
}

// getEnvelope asserts the transport-level contract: HTTP 200 with a JSON
// envelope regardless of outcome.
func getEnvelope(t *testing.T, handler http.Handler, target string) (int, string, json.RawMessage) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Code, env.Message, env.Data
}

func TestNewsList(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{records: testRecords()}, nil)
	code, msg, data := getEnvelope(t, srv.Routes(), "/db/news_list?date=2024-01-01")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", msg)

	var payload struct {
		Date  string           `json:"date"`
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "2024-01-01", payload.Date)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "第一条新闻", payload.Items[0]["title"])
	assert.Equal(t, "1/2", payload.Items[0]["item_number"])
	assert.NotContains(t, payload.Items[0], "content")
}

func TestNewsListEmptyDay(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{}, nil)
	code, _, data := getEnvelope(t, srv.Routes(), "/db/news_list?date=2024-06-01")

	assert.Equal(t, http.StatusOK, code)

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Empty(t, payload.Items)
}

func TestNewsListMissingDate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{}, nil)
	code, msg, _ := getEnvelope(t, srv.Routes(), "/db/news_list")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, msg, "date")
}

func TestNewsListStoreError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{fail: true}, nil)
	code, _, data := getEnvelope(t, srv.Routes(), "/db/news_list?date=2024-01-01")

	assert.Equal(t, http.StatusInternalServerError, code)

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Empty(t, payload.Items)
}

func TestNewsDetail(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{records: testRecords()}, nil)
	code, _, data := getEnvelope(t, srv.Routes(), "/db/news_detail?id=2")

	assert.Equal(t, http.StatusOK, code)

	var rec domain.NewsRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "国内联播快讯", rec.Title)
	assert.Equal(t, "快讯正文", rec.Content)
}

func TestNewsDetailBadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{records: testRecords()}, nil)

	code, _, _ := getEnvelope(t, srv.Routes(), "/db/news_detail")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = getEnvelope(t, srv.Routes(), "/db/news_detail?id=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNewsDetailNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{records: testRecords()}, nil)
	code, msg, _ := getEnvelope(t, srv.Routes(), "/db/news_detail?id=77")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "news not found", msg)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{}, nil)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/db/news_list", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLiveListSynthesizesWeek(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{}, nil)
	code, _, data := getEnvelope(t, http.HandlerFunc(srv.HandleLiveList), "/news/list")

	assert.Equal(t, http.StatusOK, code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 7)
}

func TestLiveContentScrapesDayPage(t *testing.T) {
	t.Parallel()

	dayPage := `<html><body><ul class="rililist">
	<li><a href="/2024/01/01/VIDE1.shtml">[视频]第一条新闻</a></li>
	</ul></body></html>`
	fetcher := &fakeFetcher{pages: map[string]string{
		extract.DayURLs("2024-01-01")[0]: dayPage,
	}}

	srv := newTestServer(&fakeStore{}, fetcher)
	code, _, data := getEnvelope(t, http.HandlerFunc(srv.HandleLiveContent), "/news/content?date=2024-01-01")

	assert.Equal(t, http.StatusOK, code)

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "第一条新闻", payload.Items[0]["title"])
	assert.Equal(t, "1", payload.Items[0]["number"])
}

func TestLiveItemScrapeFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeStore{}, &fakeFetcher{})
	code, msg, _ := getEnvelope(t, http.HandlerFunc(srv.HandleLiveItem), "/news/item?link=https://tv.cctv.com/x")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "scrape failed", msg)
}
