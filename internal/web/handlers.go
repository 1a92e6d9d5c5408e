package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/hasami-shogi/internal/app"
	"github.com/jaminalder/hasami-shogi/internal/domain"
)

type handlers struct {
	svc *app.Service
	tpl *templates
}

func (h *handlers) renderBoard(gs app.GameState) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(gs))
}

// game looks up the game named in the URL, writing a 404 when it is missing.
func (h *handlers) game(w http.ResponseWriter, r *http.Request) (*app.GameState, bool) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return gs, true
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	games := h.svc.List()
	data := make([]gameSummary, 0, len(games))
	for _, gs := range games {
		data = append(data, gameSummary{ID: gs.ID, State: gs.Game.State().String(), Moves: gs.Game.Moves()})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "base", data))
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	// Render page with embedded board container
	_, _ = w.Write(renderTemplate(h.tpl.game, "base", newBoardView(*gs)))
}

func (h *handlers) board(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs))
}

func (h *handlers) boardText(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = gs.Game.Board().Render(w)
}

type stateResponse struct {
	ID       string         `json:"id"`
	Turn     string         `json:"turn"`
	State    string         `json:"state"`
	Winner   string         `json:"winner,omitempty"`
	Captured map[string]int `json:"captured"`
	Moves    int            `json:"moves"`
	Board    []string       `json:"board"`
	Created  time.Time      `json:"created"`
	Updated  time.Time      `json:"updated"`
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.game(w, r)
	if !ok {
		return
	}
	g := gs.Game
	resp := stateResponse{
		ID:    gs.ID,
		Turn:  g.Turn().String(),
		State: g.State().String(),
		Captured: map[string]int{
			domain.Red.String():   g.Captured(domain.Red),
			domain.Black.String(): g.Captured(domain.Black),
		},
		Moves:   g.Moves(),
		Board:   g.Board().Rows(),
		Created: gs.Created,
		Updated: gs.Updated,
	}
	if winner := g.Winner(); winner != domain.Empty {
		resp.Winner = winner.String()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: board\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", oneLine(b))
			flusher.Flush()
		}
	}
}

var newlines = strings.NewReplacer("\n", "", "\r", "")

// oneLine strips newlines so a fragment fits in a single SSE data field.
func oneLine(b []byte) string { return newlines.Replace(string(b)) }
