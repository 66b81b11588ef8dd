package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/p-n-ai/tkb/internal/export"
	"github.com/p-n-ai/tkb/internal/portal"
	"github.com/p-n-ai/tkb/internal/share"
	"github.com/p-n-ai/tkb/internal/state"
	"github.com/p-n-ai/tkb/internal/timetable"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, parseSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	lessons := timetable.BuildLessonSet(req.Text)
	slog.Debug("text parsed", "lines", len(timetable.SplitLines(req.Text)), "lessons", len(lessons))
	writeJSON(w, http.StatusOK, map[string]any{"lessons": lessons})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string            `json:"text"`
		Filters timetable.Filters `json:"filters"`
	}
	if err := decode(w, r, gridSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}

	f := req.Filters
	if f.Today == 0 {
		f.Today = s.today()
	}
	if f.Week < 1 {
		f.Week = 1
	}
	g := timetable.ComposeGrid(timetable.BuildLessonSet(req.Text), s.periods, f)
	writeJSON(w, http.StatusOK, newGridView(g))
}

func (s *Server) handleImportHTML(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := portal.Extract(bytes.NewReader(body))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", state.ErrInvalid, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":    res.Text,
		"rows":    res.Rows,
		"lessons": res.Lessons,
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var next state.State
	if err := decode(w, r, stateSchema, &next); err != nil {
		writeError(w, r, err)
		return
	}

	st, err := s.svc.Replace(r.Context(), r.PathValue("id"), next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLesson(w http.ResponseWriter, r *http.Request) {
	c := timetable.DefaultCustomLesson()
	if err := decode(w, r, customLessonSchema, &c); err != nil {
		writeError(w, r, err)
		return
	}

	st, lesson, err := s.svc.AddCustomLesson(r.Context(), r.PathValue("id"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"lesson": lesson,
		"state":  st,
	})
}

func (s *Server) handleStateGrid(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGridView(s.compose(st)))
}

func (s *Server) compose(st state.State) timetable.Grid {
	return timetable.ComposeGrid(st.Lessons(), s.periods, st.Filters(s.today()))
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": share.Link(s.publicURL, st.Data)})
}

func (s *Server) handleImportShared(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decode(w, r, importSchema, &req); err != nil {
		writeError(w, r, err)
		return
	}
	link, err := url.Parse(req.URL)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", state.ErrInvalid, err))
		return
	}

	st, cleaned, ok, err := s.svc.ImportShared(r.Context(), r.PathValue("id"), link)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":      cleaned.String(),
		"imported": ok,
		"state":    st,
	})
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	termStart := s.termStart
	if v := r.URL.Query().Get("term_start"); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: term_start: %v", state.ErrInvalid, err))
			return
		}
		termStart = t
	}
	if termStart.IsZero() {
		writeError(w, r, fmt.Errorf("%w: term_start is required", state.ErrInvalid))
		return
	}

	st, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if _, err := export.ICS(&buf, st.Lessons(), export.ICSOptions{
		TermStart: termStart,
		Periods:   s.periods,
		Name:      "TKB",
		Stamp:     s.now(),
	}); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tkb.ics"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.XLSX(&buf, s.compose(st)); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="tkb.xlsx"`)
	w.Write(buf.Bytes())
}
