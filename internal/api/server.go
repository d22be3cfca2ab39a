package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lianbo/internal/domain"
	"lianbo/internal/extract"
	"lianbo/internal/ports"
	"lianbo/internal/storage"
	"lianbo/internal/usecase"
)

// Server exposes the store over a small JSON API. Every endpoint answers
// HTTP 200 with a {code, message, data} envelope; the code field carries the
// outcome (200/400/404/500).
type Server struct {
	store   ports.NewsStore
	fetcher ports.Fetcher
	detail  usecase.DetailExtractor
	logger  *slog.Logger
}

// New wires the store plus the live-scrape collaborators.
func New(store ports.NewsStore, fetcher ports.Fetcher, detail usecase.DetailExtractor, logger *slog.Logger) *Server {
	return &Server{store: store, fetcher: fetcher, detail: detail, logger: logger}
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// listEntry is the per-item shape of the news_list response; content is
// deliberately excluded from listings.
type listEntry struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Title      string `json:"title"`
	ItemNumber string `json:"item_number"`
	Link       string `json:"link"`
}

// Routes registers the database-backed endpoints. The live-scrape handlers
// stay unregistered, matching the upstream surface.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/db/news_list", s.HandleNewsList)
	mux.HandleFunc("/db/news_detail", s.HandleNewsDetail)
	// mux.HandleFunc("/news/list", s.HandleLiveList)
	// mux.HandleFunc("/news/content", s.HandleLiveContent)
	// mux.HandleFunc("/news/item", s.HandleLiveItem)
	return s.corsMiddleware(mux)
}

// HandleNewsList serves GET /db/news_list?date=YYYY-MM-DD.
func (s *Server) HandleNewsList(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.write(w, envelope{Code: http.StatusBadRequest, Message: "missing date parameter"})
		return
	}

	records, err := s.store.ListByDate(r.Context(), date)
	if err != nil {
		s.error("list by date failed", err)
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: fmt.Sprintf("query news list failed: %v", err),
			Data:    map[string]any{"date": date, "items": []listEntry{}},
		})
		return
	}

	items := make([]listEntry, 0, len(records))
	for _, rec := range records {
		items = append(items, listEntry{
			ID:         rec.ID,
			Date:       rec.Date,
			Title:      rec.Title,
			ItemNumber: rec.ItemNumber,
			Link:       rec.Link,
		})
	}

	s.write(w, envelope{
		Code:    http.StatusOK,
		Message: "success",
		Data:    map[string]any{"date": date, "items": items},
	})
}

// HandleNewsDetail serves GET /db/news_detail?id=<int>.
func (s *Server) HandleNewsDetail(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		s.write(w, envelope{Code: http.StatusBadRequest, Message: "missing id parameter"})
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.write(w, envelope{Code: http.StatusBadRequest, Message: "id must be an integer"})
		return
	}

	rec, err := s.store.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.write(w, envelope{Code: http.StatusNotFound, Message: "news not found"})
		return
	}
	if err != nil {
		s.error("get by id failed", err)
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: fmt.Sprintf("query news detail failed: %v", err),
		})
		return
	}

	s.write(w, envelope{Code: http.StatusOK, Message: "success", Data: rec})
}

// HandleLiveList synthesizes the last 7 days of day-page links without
// crawling. Retained from the upstream surface; not routed.
func (s *Server) HandleLiveList(w http.ResponseWriter, r *http.Request) {
	type liveEntry struct {
		Date  string `json:"date"`
		Title string `json:"title"`
		Link  string `json:"link"`
	}

	today := time.Now()
	entries := make([]liveEntry, 0, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, -i)
		date := day.Format(domain.DateFormat)
		entries = append(entries, liveEntry{
			Date:  date,
			Title: fmt.Sprintf("%s 新闻联播", date),
			Link:  extract.DayURLs(date)[1],
		})
	}

	s.write(w, envelope{Code: http.StatusOK, Message: "success", Data: entries})
}

// HandleLiveContent scrapes a day's item list on demand. Not routed.
func (s *Server) HandleLiveContent(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.write(w, envelope{Code: http.StatusBadRequest, Message: "missing date parameter"})
		return
	}

	page, err := s.fetchDayPage(r.Context(), date)
	if err != nil {
		s.error("live day fetch failed", err)
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: "scrape failed",
			Data:    map[string]any{"content": "", "items": []domain.NewsItem{}},
		})
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: "scrape failed",
			Data:    map[string]any{"content": "", "items": []domain.NewsItem{}},
		})
		return
	}

	type liveItem struct {
		Number string `json:"number"`
		Title  string `json:"title"`
		Link   string `json:"link"`
	}

	items := extract.ExtractList(doc, date)
	out := make([]liveItem, 0, len(items))
	for _, item := range items {
		out = append(out, liveItem{
			Number: strconv.Itoa(item.Index),
			Title:  item.Title,
			Link:   item.Link,
		})
	}

	s.write(w, envelope{
		Code:    http.StatusOK,
		Message: "success",
		Data: map[string]any{
			"content": fmt.Sprintf("%s 新闻联播完整内容", date),
			"items":   out,
		},
	})
}

// HandleLiveItem scrapes a single detail page on demand. Not routed.
func (s *Server) HandleLiveItem(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("link")
	if link == "" {
		s.write(w, envelope{Code: http.StatusBadRequest, Message: "missing link parameter"})
		return
	}

	page, err := s.fetcher.Fetch(r.Context(), link)
	if err != nil {
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: "scrape failed",
			Data:    map[string]any{"content": "", "link": link},
		})
		return
	}

	content, err := s.detail.Extract(r.Context(), page)
	if err != nil {
		s.write(w, envelope{
			Code:    http.StatusInternalServerError,
			Message: "scrape failed",
			Data:    map[string]any{"content": "", "link": link},
		})
		return
	}

	s.write(w, envelope{
		Code:    http.StatusOK,
		Message: "success",
		Data:    map[string]any{"content": content, "link": link},
	})
}

func (s *Server) fetchDayPage(ctx context.Context, date string) (string, error) {
	for _, dayURL := range extract.DayURLs(date) {
		page, err := s.fetcher.Fetch(ctx, dayURL)
		if err == nil && page != "" {
			return page, nil
		}
	}
	return "", fmt.Errorf("no day-page url shape worked for %s", date)
}

// corsMiddleware allows all origins, matching the upstream service.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) write(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.error("encode response failed", err)
	}
}

func (s *Server) error(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}
