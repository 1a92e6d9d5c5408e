package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jaminalder/hasami-shogi/internal/app"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService()
	h := NewServer(s)
	return s, h
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexListsGames(t *testing.T) {
	svc, h := newTestServer(t)
	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No games") {
		t.Fatalf("empty index should say so; got body: %q", rr.Body.String())
	}

	gs, _ := svc.CreateGame()
	rr = get(t, h, "/")
	body := rr.Body.String()
	if !strings.Contains(body, "/game/"+gs.ID) || !strings.Contains(body, "UNFINISHED") {
		t.Fatalf("index should link the game; got body: %q", body)
	}
}

func TestGamePageHasBoardAndSSE(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()

	rr := get(t, h, "/game/"+url.PathEscape(gs.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, "id=\"board\"") || !strings.Contains(body, "RED to move") {
		t.Fatalf("expected embedded board; got body: %q", body)
	}
	if !strings.HasPrefix(body, "<!doctype html>") || !strings.Contains(body, "htmx.org") {
		t.Fatalf("expected full page with htmx scripts; got body: %q", body)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	_, h := newTestServer(t)
	for _, p := range []string{"/game/nope", "/game/nope/board", "/game/nope/board.txt", "/game/nope/state", "/game/nope/events"} {
		if rr := get(t, h, p); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, rr.Code)
		}
	}
}

func TestBoardFragmentReflectsMoves(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	if _, err := svc.Move(gs.ID, "a1", "e1"); err != nil {
		t.Fatalf("move: %v", err)
	}
	rr := get(t, h, "/game/"+gs.ID+"/board")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", body)
	}
	if !strings.Contains(body, `class="red" title="e1"`) || !strings.Contains(body, `class="empty" title="a1"`) {
		t.Fatalf("expected e1 red and a1 empty, got %q", body)
	}
	if !strings.Contains(body, "BLACK to move") {
		t.Fatalf("expected BLACK to move, got %q", body)
	}
}

func TestBoardText(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	rr := get(t, h, "/game/"+gs.ID+"/board.txt")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected header plus 9 rows, got %d lines", len(lines))
	}
	if lines[0] != "  1 2 3 4 5 6 7 8 9" || lines[1] != "a R R R R R R R R R" || lines[9] != "i B B B B B B B B B" {
		t.Fatalf("unexpected rendering:\n%s", rr.Body.String())
	}
}

func TestStateJSON(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	for _, m := range [][2]string{{"a2", "e2"}, {"i3", "e3"}, {"a4", "e4"}} {
		if _, err := svc.Move(gs.ID, m[0], m[1]); err != nil {
			t.Fatalf("move %v: %v", m, err)
		}
	}
	rr := get(t, h, "/game/"+gs.ID+"/state")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got stateResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != gs.ID || got.Turn != "BLACK" || got.State != "UNFINISHED" || got.Moves != 3 {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.Captured["RED"] != 1 || got.Captured["BLACK"] != 0 {
		t.Fatalf("unexpected tallies: %v", got.Captured)
	}
	if len(got.Board) != 9 || got.Board[4] != "_R_R_____" {
		t.Fatalf("unexpected board rows: %v", got.Board)
	}
	if got.Winner != "" {
		t.Fatalf("expected no winner, got %q", got.Winner)
	}
}

func TestNoRouteMutatesGame(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	req := httptest.NewRequest("POST", "/game/"+gs.ID+"/board", strings.NewReader("from=a1&to=e1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Moves() != 0 {
		t.Fatalf("expected no moves, got %d", latest.Game.Moves())
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	rr := get(t, h, "/game/"+gs.ID+"/events")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestEventsStreamsBoardOnMove(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/game/"+gs.ID+"/events", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	// Headers are flushed after the handler has subscribed.
	if _, err := svc.Move(gs.ID, "a1", "e1"); err != nil {
		t.Fatalf("move: %v", err)
	}

	rd := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		return strings.TrimSuffix(line, "\n")
	}
	if line := readLine(); line != "event: board" {
		t.Fatalf("expected board event, got %q", line)
	}
	data := readLine()
	if !strings.HasPrefix(data, "data: ") {
		t.Fatalf("expected data line, got %q", data)
	}
	if !strings.Contains(data, `id="board"`) || !strings.Contains(data, "BLACK to move") {
		t.Fatalf("expected board fragment after move, got %q", data)
	}
	if line := readLine(); line != "" {
		t.Fatalf("expected blank line ending the event, got %q", line)
	}
}

func TestServiceBroadcastsBoardFragment(t *testing.T) {
	svc, _ := newTestServer(t)
	gs, _ := svc.CreateGame()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub, err := svc.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()
	if _, err := svc.Move(gs.ID, "a1", "e1"); err != nil {
		t.Fatalf("move: %v", err)
	}
	b := <-ch
	if !strings.Contains(string(b), "id=\"board\"") || !strings.Contains(oneLine(b), "BLACK to move") {
		t.Fatalf("expected rendered board in broadcast, got %q", b)
	}
	if strings.Contains(oneLine(b), "\n") {
		t.Fatalf("oneLine left a newline")
	}
}
