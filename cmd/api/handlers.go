package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/TrendDeskAI/trenddesk/engine/dateinfer"
	"github.com/TrendDeskAI/trenddesk/engine/domain"
	"github.com/TrendDeskAI/trenddesk/engine/memo"
	"github.com/TrendDeskAI/trenddesk/engine/scrape"
	"github.com/TrendDeskAI/trenddesk/engine/trends"
	"github.com/TrendDeskAI/trenddesk/pkg/fn"
	"github.com/TrendDeskAI/trenddesk/pkg/metrics"
)

// extractor is the slice of scrape.Extractor the handlers need.
type extractor interface {
	Extract(ctx context.Context, rawURL string, kind scrape.Kind) fn.Result[string]
	Document(ctx context.Context, rawURL string) (*goquery.Document, error)
}

type server struct {
	svc       *trends.Service
	extractor extractor
	keyCheck  func() bool
	registry  *metrics.Registry
	logger    *slog.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/trends", s.handleList)
	mux.HandleFunc("GET /api/trends/filter", s.handleFilter)
	mux.HandleFunc("POST /api/trends", s.handleCreate)
	mux.HandleFunc("PUT /api/trends/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/trends/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/scrape/youtube", s.handleScrape(scrape.KindYouTube))
	mux.HandleFunc("POST /api/scrape/webpage", s.handleScrape(scrape.KindWebpage))
	mux.HandleFunc("POST /api/generate-memo", s.handleGenerateMemo)
	mux.HandleFunc("POST /api/scrape-and-generate", s.handleScrapeAndGenerate)
	mux.HandleFunc("GET /api/check-claude-key", s.handleCheckKey)
	mux.HandleFunc("POST /api/extract-date", s.handleExtractDate)
	mux.Handle("GET /metrics", s.registry.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.List(r.Context())
	if err != nil {
		s.logger.Error("list trends failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if recs == nil {
		recs = []domain.TrendRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *server) handleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.svc.Filter(r.Context(), trends.FilterQuery{
		Search:    q.Get("search"),
		Theme:     q.Get("theme"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	})
	if err != nil {
		s.logger.Error("filter trends failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if recs == nil {
		recs = []domain.TrendRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec domain.TrendRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.svc.Create(r.Context(), rec)
	if err != nil {
		if errors.Is(err, domain.ErrMissingField) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create trend failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch domain.TrendPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.svc.Update(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid record id")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "record not found")
		default:
			s.logger.Error("update trend failed", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid record id")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "record not found")
		default:
			s.logger.Error("delete trend failed", "id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "record deleted", "id": id})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (s *server) handleScrape(kind scrape.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		content, err := s.extractor.Extract(r.Context(), req.URL, kind).Unwrap()
		s.countScrape(kind, err == nil)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

func (s *server) countScrape(kind scrape.Kind, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	s.registry.Counter(metrics.WithLabels("scrape_total",
		"kind", string(kind), "outcome", outcome),
		"Scrape requests by kind and outcome.").Inc()
}

type memoRequest struct {
	Content      string `json:"content"`
	ResearchTask string `json:"research_task"`
	Context      string `json:"context"`
	Theme        string `json:"theme"`
}

func (s *server) handleGenerateMemo(w http.ResponseWriter, r *http.Request) {
	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" || req.ResearchTask == "" {
		writeError(w, http.StatusBadRequest, "content and research_task are required")
		return
	}
	if !s.keyCheck() {
		writeError(w, http.StatusBadRequest, "claude API key is not configured")
		return
	}

	analysis, err := s.svc.GenerateMemo(r.Context(), memo.Request{
		Content:      req.Content,
		ResearchTask: req.ResearchTask,
		Context:      req.Context,
		Theme:        req.Theme,
	})
	if err != nil {
		s.logger.Error("generate memo failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

type scrapeGenerateRequest struct {
	URLs         []string               `json:"urls"`
	ResearchTask string                 `json:"research_task"`
	Context      string                 `json:"context"`
	Theme        string                 `json:"theme"`
	SourceType   string                 `json:"source_type"`
	Persona      *trends.PersonaDetails `json:"persona"`
}

func (s *server) handleScrapeAndGenerate(w http.ResponseWriter, r *http.Request) {
	var req scrapeGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 || req.ResearchTask == "" {
		writeError(w, http.StatusBadRequest, "urls and research_task are required")
		return
	}

	created, err := s.svc.ScrapeAndGenerate(r.Context(), trends.ScrapeAndGenerateRequest{
		URLs:         req.URLs,
		ResearchTask: req.ResearchTask,
		Context:      req.Context,
		Theme:        req.Theme,
		SourceType:   req.SourceType,
		Persona:      req.Persona,
	})
	if err != nil {
		switch {
		case errors.Is(err, trends.ErrScrape), errors.Is(err, trends.ErrGenerate), errors.Is(err, domain.ErrMissingField):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("scrape-and-generate failed", "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleCheckKey(w http.ResponseWriter, _ *http.Request) {
	if !s.keyCheck() {
		writeError(w, http.StatusBadRequest, "claude API key is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "claude API key is configured"})
}

func (s *server) handleExtractDate(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	// The URL pattern strategy needs no page, so a dated URL still
	// resolves when the site is unreachable.
	if date, ok := dateinfer.FromURL(req.URL); ok {
		writeJSON(w, http.StatusOK, map[string]string{"date": date.Format(time.DateOnly)})
		return
	}

	doc, err := s.extractor.Document(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("extract-date fetch failed", "url", req.URL, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if date, ok := dateinfer.Infer(req.URL, doc); ok {
		writeJSON(w, http.StatusOK, map[string]string{"date": date.Format(time.DateOnly)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"date": time.Now().Format(time.DateOnly),
		"note": "publication date could not be determined, defaulted to today",
	})
}
