package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/hasami-shogi/internal/app"
)

// NewServer wires the spectator routes and returns an http.Handler. Every
// route is read only; moves enter through the service directly. The service's
// broadcast renderer is set to the board fragment so SSE clients can swap it in.
func NewServer(s *app.Service) http.Handler {
	r := chi.NewRouter()
	h := &handlers{svc: s, tpl: loadTemplates()}
	s.SetRenderer(h.renderBoard)
	r.Get("/", h.index)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Get("/board", h.board)
		r.Get("/board.txt", h.boardText)
		r.Get("/state", h.state)
		r.Get("/events", h.events)
	})
	return r
}
