package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/hasami-shogi/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Game    domain.Game
	Created time.Time
	Updated time.Time
}

// MoveResult describes an applied move.
type MoveResult struct {
	State    GameState
	Mover    domain.Cell
	From, To domain.Square
	Captured []domain.Square
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers.
type Service struct {
	mu       sync.Mutex
	games    map[string]*GameState
	subs     map[string]map[*subscriber]struct{}
	render   func(GameState) []byte
	log      *log.Logger
	gameOpts []domain.Option
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRenderer sets the function that builds broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) ServiceOption {
	return func(s *Service) { s.setRenderer(renderer) }
}

// WithLogger sets the logger used for game events. Nil keeps the default,
// which discards.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGameOptions sets the options applied to every created game.
func WithGameOptions(opts ...domain.Option) ServiceOption {
	return func(s *Service) { s.gameOpts = append(s.gameOpts, opts...) }
}

// NewService creates a service. Without a renderer, broadcasts carry no payload.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		games: make(map[string]*GameState),
		subs:  make(map[string]map[*subscriber]struct{}),
		log:   log.New(io.Discard, "", 0),
	}
	s.setRenderer(nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRenderer(renderer)
}

func (s *Service) setRenderer(renderer func(GameState) []byte) {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	s.render = renderer
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &GameState{ID: id, Game: domain.New(s.gameOpts...), Created: now, Updated: now}
	s.games[id] = gs
	s.log.Printf("game %s created, %s to move", id, gs.Game.Turn())
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Remove drops a game and closes its subscriptions. It reports whether the
// game existed.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return false
	}
	delete(s.games, id)
	for sub := range s.subs[id] {
		sub.close()
	}
	delete(s.subs, id)
	s.log.Printf("game %s removed", id)
	return true
}

// List returns copies of all games, oldest first.
func (s *Service) List() []GameState {
	s.mu.Lock()
	out := make([]GameState, 0, len(s.games))
	for _, gs := range s.games {
		out = append(out, *gs)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Move parses origin and target, applies the move for the side to move,
// updates timestamps, and broadcasts.
func (s *Service) Move(id, origin, target string) (*MoveResult, error) {
	from, err := domain.ParseSquare(origin)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseSquare(target)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	mover := gs.Game.Turn()
	captured, err := gs.Game.Play(from, to)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	gs.Updated = time.Now()

	cp := *gs
	dropped := s.broadcastLocked(id, s.render(cp))
	s.mu.Unlock()

	s.log.Printf("game %s: %s %s-%s captured=%d state=%s", id, mover, from, to, len(captured), cp.Game.State())
	if dropped > 0 {
		s.log.Printf("game %s: dropped %d slow subscriber(s)", id, dropped)
	}
	return &MoveResult{State: cp, Mover: mover, From: from, To: to, Captured: captured}, nil
}

// broadcastLocked fans out payload without blocking; subscribers whose
// buffer is still full are closed and dropped. Sends and closes both happen
// under s.mu so a send never races a close.
func (s *Service) broadcastLocked(id string, payload []byte) int {
	set := s.subs[id]
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
			dropped++
		}
	}
	return dropped
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func. The subscription also ends when ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	done := make(chan struct{})
	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			close(done)
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-done:
		}
	}()
	return sub.ch, unsub, nil
}
