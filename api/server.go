// Package api provides the HTTP REST API server for Sector Screen.
//
// It exposes endpoints for sector/industry reference data, screening,
// spreadsheet export, ticker-list upload, and per-ticker news.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/investia/sectorscreen/internal/config"
	"github.com/investia/sectorscreen/internal/datasource"
	"github.com/investia/sectorscreen/internal/ingest"
	"github.com/investia/sectorscreen/internal/report"
	"github.com/investia/sectorscreen/internal/screener"
	"github.com/investia/sectorscreen/pkg/models"
)

// NewsSource is the per-ticker headline lookup the server depends on.
type NewsSource interface {
	TickerNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	src    datasource.DataSource
	scr    *screener.Screener
	news   NewsSource
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, src datasource.DataSource, news NewsSource) *Server {
	srv := &Server{
		cfg:  cfg,
		src:  src,
		scr:  screener.New(src),
		news: news,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/sectors", s.handleSectors)
		r.Get("/sectors/{key}/industries", s.handleIndustries)
		r.Post("/screen", s.handleScreen)
		r.Post("/screen/export", s.handleExport)
		r.Post("/upload", s.handleUpload)
		r.Get("/news/{ticker}", s.handleNews)
	})

	return r
}

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// ============================================================
// Request / response types
// ============================================================

// ScreenRequest is the body for POST /api/v1/screen and /screen/export.
type ScreenRequest struct {
	SectorKey  string            `json:"sector_key,omitempty"`
	Industries []models.Industry `json:"industries"`
	Method     string            `json:"method,omitempty"`
	Filters    FilterRequest     `json:"filters,omitempty"`
}

// FilterRequest carries the optional user filters.
type FilterRequest struct {
	CapMin  *float64 `json:"cap_min,omitempty"`
	CapMax  *float64 `json:"cap_max,omitempty"`
	TopN    int      `json:"top_n,omitempty"`
	Ratings []string `json:"ratings,omitempty"`
}

// ScreenResponse is the screening result payload.
type ScreenResponse struct {
	Columns []string               `json:"columns"`
	Rows    []models.CompanyRecord `json:"rows"`
	Count   int                    `json:"count"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status": "ok",
			"source": s.src.Name(),
		},
	})
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.scr.Catalog().Sectors(),
	})
}

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "sector key is required")
		return
	}

	// Degrades to an empty map on upstream failure; that is a valid answer,
	// not an error.
	industries := s.scr.Catalog().Industries(r.Context(), key)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: industries})
}

// resolveScreen runs the shared selection → table pipeline for the screen
// and export handlers.
func (s *Server) resolveScreen(r *http.Request, req ScreenRequest) (screener.Table, error) {
	method, err := models.ParseRankMethod(req.Method)
	if err != nil {
		return nil, err
	}

	industries := req.Industries
	if len(industries) == 0 && req.SectorKey != "" {
		// Empty selection means "all industries in the sector".
		for name, key := range s.scr.Catalog().Industries(r.Context(), req.SectorKey) {
			industries = append(industries, models.Industry{Name: name, Key: key})
		}
	}
	if len(industries) == 0 {
		return nil, errors.New("no industries selected")
	}

	table := s.scr.Combine(r.Context(), industries, method)

	filters := screener.Filters{
		CapMin:  req.Filters.CapMin,
		CapMax:  req.Filters.CapMax,
		TopN:    req.Filters.TopN,
		Ratings: req.Filters.Ratings,
	}
	return filters.Apply(table), nil
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := s.resolveScreen(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ScreenResponse{
			Columns: models.Columns(),
			Rows:    table,
			Count:   len(table),
		},
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	table, err := s.resolveScreen(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	styled := r.URL.Query().Get("style") == "styled"
	filename := "industry_companies_plain.xlsx"
	if styled {
		filename = "industry_companies_styled.xlsx"
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if styled {
		err = report.WriteStyledXLSX(w, table)
	} else {
		err = report.WriteXLSX(w, table)
	}
	if err != nil {
		log.Printf("export failed: %v", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	rows, err := ingest.ParseTickerFile(file)
	if err != nil {
		writeValidation(w, err)
		return
	}
	tickers, err := ingest.ValidateTickers(rows)
	if err != nil {
		writeValidation(w, err)
		return
	}

	pending := ingest.BuildRows(tickers, func(ticker string) (string, error) {
		return s.src.CompanyName(r.Context(), ticker)
	})
	table := s.scr.Enricher().Enrich(r.Context(), pending)

	// An optional "existing" part carries a previously exported table; the
	// fresh rows are appended to it, duplicates and all.
	if existing, _, err := r.FormFile("existing"); err == nil {
		defer existing.Close()
		base, err := report.ReadTable(existing)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read the existing table file")
			return
		}
		table = base.Append(table)
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ScreenResponse{
			Columns: models.Columns(),
			Rows:    table,
			Count:   len(table),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, "news source not configured")
		return
	}

	items, err := s.news.TickerNews(r.Context(), ticker, 20)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// writeValidation maps upload validation failures to 400s and anything else
// to a 500.
func writeValidation(w http.ResponseWriter, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
