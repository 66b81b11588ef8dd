// Package api serves timetables over HTTP.
package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/p-n-ai/tkb/internal/state"
	"github.com/p-n-ai/tkb/internal/timetable"
)

// maxBodyBytes bounds request bodies. Portal pages are the largest input.
const maxBodyBytes = 4 << 20

// Options configures a Server.
type Options struct {
	Service *state.Service
	Periods []timetable.Period
	// PublicURL is the base of share links.
	PublicURL *url.URL
	// TermStart is the default term start for calendar export. Zero means
	// callers must pass term_start.
	TermStart time.Time
	Location  *time.Location
	Now       func() time.Time
	// OriginPatterns lists the hosts allowed to open live connections from
	// another origin.
	OriginPatterns []string
}

// Server holds the HTTP handlers.
type Server struct {
	svc            *state.Service
	periods        []timetable.Period
	publicURL      *url.URL
	termStart      time.Time
	loc            *time.Location
	now            func() time.Time
	originPatterns []string
}

// NewServer creates a server. Missing periods, location and clock default to
// the standard period table, UTC and time.Now.
func NewServer(opts Options) *Server {
	s := &Server{
		svc:            opts.Service,
		periods:        opts.Periods,
		publicURL:      opts.PublicURL,
		termStart:      opts.TermStart,
		loc:            opts.Location,
		now:            opts.Now,
		originPatterns: opts.OriginPatterns,
	}
	if len(s.periods) == 0 {
		s.periods = timetable.DefaultPeriods()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publicURL == nil {
		s.publicURL = &url.URL{Scheme: "http", Host: "localhost:8080", Path: "/"}
	}
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /v1/parse", s.handleParse)
	mux.HandleFunc("POST /v1/grid", s.handleGrid)
	mux.HandleFunc("POST /v1/import/html", s.handleImportHTML)

	mux.HandleFunc("GET /v1/state/{id}", s.handleGetState)
	mux.HandleFunc("PUT /v1/state/{id}", s.handlePutState)
	mux.HandleFunc("DELETE /v1/state/{id}", s.handleResetState)
	mux.HandleFunc("POST /v1/state/{id}/lessons", s.handleAddLesson)
	mux.HandleFunc("GET /v1/state/{id}/grid", s.handleStateGrid)
	mux.HandleFunc("GET /v1/state/{id}/share", s.handleShare)
	mux.HandleFunc("POST /v1/state/{id}/import", s.handleImportShared)
	mux.HandleFunc("GET /v1/state/{id}/export.ics", s.handleExportICS)
	mux.HandleFunc("GET /v1/state/{id}/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /v1/state/{id}/live", s.handleLive)
	return mux
}

// today returns the current day code in the server's time zone.
func (s *Server) today() int {
	return timetable.DayCodeOf(s.now().In(s.loc))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.svc.Store().HealthCheck(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
