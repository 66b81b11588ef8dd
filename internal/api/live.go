package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/tkb/internal/state"
)

const liveWriteTimeout = 5 * time.Second

// livePatch is a client message. Absent fields leave the stored value alone.
type livePatch struct {
	Data              *string `json:"data"`
	ByWeek            *bool   `json:"by_week"`
	Week              *int    `json:"week"`
	ShowOnlyAvailable *bool   `json:"show_only_available"`
	OnlyToday         *bool   `json:"only_today"`
	AutoFit           *bool   `json:"auto_fit"`
	HidePanel         *bool   `json:"hide_panel"`
}

func (p livePatch) apply(st *state.State) error {
	if p.Data != nil {
		st.Data = *p.Data
	}
	if p.ByWeek != nil {
		st.ByWeek = *p.ByWeek
	}
	if p.Week != nil {
		st.Week = *p.Week
	}
	if p.ShowOnlyAvailable != nil {
		st.ShowOnlyAvailable = *p.ShowOnlyAvailable
	}
	if p.OnlyToday != nil {
		st.OnlyToday = *p.OnlyToday
	}
	if p.AutoFit != nil {
		st.AutoFit = *p.AutoFit
	}
	if p.HidePanel != nil {
		st.HidePanel = *p.HidePanel
	}
	return nil
}

// liveMessage is pushed to clients: the full state and its grid after every
// change, or an error for a rejected patch.
type liveMessage struct {
	Type  string       `json:"type"`
	State *state.State `json:"state,omitempty"`
	Grid  *gridView    `json:"grid,omitempty"`
	Error string       `json:"error,omitempty"`
}

// handleLive keeps a client in sync with one state. The current grid is sent
// on connect. Each client message is a patch; the grid is pushed again
// whenever the state changes, whichever connection or request changed it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !state.ValidID(id) {
		writeError(w, r, fmt.Errorf("%w: state id %q", state.ErrInvalid, id))
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		slog.Warn("websocket accept failed", "id", id, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := s.svc.Bus().Subscribe(ctx, id)
	defer unsubscribe()

	slog.Info("live client connected", "id", id)

	if err := s.pushGrid(ctx, conn, id); err != nil {
		slog.Warn("live push failed", "id", id, "error", err)
		return
	}

	patches := make(chan json.RawMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg json.RawMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case patches <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Info("live client disconnected", "id", id)
				conn.Close(websocket.StatusNormalClosure, "")
			default:
				if !errors.Is(err, context.Canceled) {
					slog.Warn("live read failed", "id", id, "error", err)
				}
			}
			return

		case msg := <-patches:
			var p livePatch
			if err := decodeBytes(msg, patchSchema, &p); err != nil {
				if err := s.send(ctx, conn, liveMessage{Type: "error", Error: err.Error()}); err != nil {
					return
				}
				continue
			}
			if _, err := s.svc.Update(ctx, id, p.apply); err != nil {
				slog.Error("live update failed", "id", id, "error", err)
				if err := s.send(ctx, conn, liveMessage{Type: "error", Error: "update failed"}); err != nil {
					return
				}
			}

		case e, ok := <-events:
			if !ok {
				return
			}
			slog.Debug("live state changed", "id", id, "kind", e.Kind)
			if err := s.pushGrid(ctx, conn, id); err != nil {
				slog.Warn("live push failed", "id", id, "error", err)
				return
			}
		}
	}
}

func (s *Server) pushGrid(ctx context.Context, conn *websocket.Conn, id string) error {
	st, err := s.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	g := newGridView(s.compose(st))
	return s.send(ctx, conn, liveMessage{Type: "grid", State: &st, Grid: &g})
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, msg liveMessage) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
