package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state. The two sides double as cell values.
type Cell uint8

const (
	Empty Cell = iota
	Red
	Black
)

// Opponent returns the other side; Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return Empty
	}
}

func (c Cell) String() string {
	switch c {
	case Red:
		return "RED"
	case Black:
		return "BLACK"
	default:
		return "NONE"
	}
}

// Symbol is the single character used by the text board.
func (c Cell) Symbol() byte {
	switch c {
	case Red:
		return 'R'
	case Black:
		return 'B'
	default:
		return '_'
	}
}

// ParsePlayer accepts "red" or "black" in any case.
func ParsePlayer(s string) (Cell, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, true
	case "black", "b":
		return Black, true
	}
	return Empty, false
}

// State is the outcome of a match so far.
type State uint8

const (
	InProgress State = iota
	RedWon
	BlackWon
)

func (s State) String() string {
	switch s {
	case RedWon:
		return "RED_WON"
	case BlackWon:
		return "BLACK_WON"
	default:
		return "UNFINISHED"
	}
}

// Game holds the current state of a Hasami Shogi match.
// The zero value is not usable; call New.
type Game struct {
	board    Board
	turn     Cell
	state    State
	captured [3]int // indexed by the capturing side
	moves    int
}

// Errors returned by domain operations.
var (
	ErrInvalidNotation = errors.New("invalid notation")
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrGameOver        = errors.New("game over")
	ErrNotYourPiece    = errors.New("origin does not hold a piece of the side to move")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidCell     = errors.New("invalid cell")
)

// Option configures a new game.
type Option func(*Game)

// WithFirstPlayer picks the side that opens. Anything but Red or Black is ignored.
func WithFirstPlayer(c Cell) Option {
	return func(g *Game) {
		if c == Red || c == Black {
			g.turn = c
		}
	}
}

// New returns a game in the starting layout: Red fills row a, Black fills
// row i, Red to move unless an option says otherwise.
func New(opts ...Option) Game {
	g := Game{turn: Red}
	for col := 0; col < Size; col++ {
		g.board[col] = Red
		g.board[NumSquares-Size+col] = Black
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

func (g *Game) State() State { return g.state }

// Turn returns the side to move.
func (g *Game) Turn() Cell { return g.turn }

// Moves returns the number of moves applied so far.
func (g *Game) Moves() int { return g.moves }

// Captured returns how many enemy pieces side p has removed.
func (g *Game) Captured(p Cell) int {
	if p != Red && p != Black {
		return 0
	}
	return g.captured[p]
}

// Winner returns the winning side, or Empty while the game is in progress.
func (g *Game) Winner() Cell {
	switch g.state {
	case RedWon:
		return Red
	case BlackWon:
		return Black
	}
	return Empty
}

// Board returns a copy of the board.
func (g *Game) Board() Board { return g.board }

// At returns the occupant of sq, or Empty when sq is off the board.
func (g *Game) At(sq Square) Cell {
	if !sq.Valid() {
		return Empty
	}
	return g.board[sq]
}

// Occupant returns the occupant of the square named by pos.
func (g *Game) Occupant(pos string) (Cell, error) {
	sq, err := ParseSquare(pos)
	if err != nil {
		return Empty, err
	}
	return g.board[sq], nil
}

// LegalDestinations lists the squares the piece on from can slide to.
func (g *Game) LegalDestinations(from Square) []Square {
	return g.board.Destinations(from)
}

// IsLegal reports whether the piece on from may slide to to. It does not
// check whose turn it is.
func (g *Game) IsLegal(from, to Square) bool {
	return g.board.CanSlide(from, to)
}

// Play moves the side to move from one square to another, resolves captures,
// passes the turn and settles the outcome. It returns the captured squares.
// On error the game is left untouched.
func (g *Game) Play(from, to Square) ([]Square, error) {
	if g.state != InProgress {
		return nil, ErrGameOver
	}
	if !from.Valid() || !to.Valid() {
		return nil, ErrOutOfBounds
	}
	if g.board[from] != g.turn {
		return nil, ErrNotYourPiece
	}
	if !g.IsLegal(from, to) {
		return nil, ErrIllegalMove
	}

	g.board.move(from, to)
	captured := g.resolveCaptures(to)
	g.moves++
	g.turn = g.turn.Opponent()
	g.settle()
	return captured, nil
}

// MakeMove is Play addressed in notation. Rule violations yield false with a
// nil error; only malformed notation produces an error.
func (g *Game) MakeMove(origin, target string) (bool, error) {
	from, err := ParseSquare(origin)
	if err != nil {
		return false, err
	}
	to, err := ParseSquare(target)
	if err != nil {
		return false, err
	}
	if _, err := g.Play(from, to); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *Game) resolveCaptures(to Square) []Square {
	ally := g.board[to]
	captured := g.board.Captures(to, ally)
	for _, sq := range captured {
		g.board[sq] = Empty
	}
	g.captured[ally] += len(captured)
	return captured
}

// settle checks the win thresholds. A side wins once it has taken 8 or 9
// enemy pieces.
func (g *Game) settle() {
	switch {
	case winningTally(g.captured[Black]):
		g.state = BlackWon
	case winningTally(g.captured[Red]):
		g.state = RedWon
	}
}

func winningTally(n int) bool { return n == 8 || n == 9 }

// Place puts c on the square named by pos, bypassing the rules. Empty clears
// the square. Meant for arranging positions between moves.
func (g *Game) Place(pos string, c Cell) error {
	if c > Black {
		return fmt.Errorf("%w: %d", ErrInvalidCell, c)
	}
	sq, err := ParseSquare(pos)
	if err != nil {
		return err
	}
	g.board[sq] = c
	return nil
}

// ClearBoard empties every square. Turn, tallies and state are kept.
func (g *Game) ClearBoard() {
	g.board = Board{}
}
