package domain

import (
	"io"
	"slices"
	"strings"
)

// Board is a fixed 9x9 board stored row-major.
type Board [NumSquares]Cell

// direction is a unit step on the board.
type direction struct{ dr, dc int }

// up, down, left, right
var orthogonals = [4]direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// scan walks away from s along d, handing each square to visit until visit
// returns false or the edge is reached. Rows never wrap.
func scan(s Square, d direction, visit func(Square) bool) {
	row, col := s.Row(), s.Col()
	for {
		row, col = row+d.dr, col+d.dc
		next, ok := SquareAt(row, col)
		if !ok || !visit(next) {
			return
		}
	}
}

// Destinations lists, in ascending order, the empty squares reachable from
// the piece on from by sliding orthogonally without jumping. An empty or
// off-board origin has no destinations.
func (b Board) Destinations(from Square) []Square {
	if !from.Valid() || b[from] == Empty {
		return nil
	}
	var out []Square
	for _, d := range orthogonals {
		scan(from, d, func(sq Square) bool {
			if b[sq] != Empty {
				return false
			}
			out = append(out, sq)
			return true
		})
	}
	slices.Sort(out)
	return out
}

// CanSlide reports whether to is among the destinations of from.
func (b Board) CanSlide(from, to Square) bool {
	return slices.Contains(b.Destinations(from), to)
}

func (b *Board) move(from, to Square) {
	b[to] = b[from]
	b[from] = Empty
}

// corner pairs a corner square with its two orthogonal neighbours.
type corner struct{ sq, n1, n2 Square }

var corners = [4]corner{
	{0, 1, 9},
	{8, 7, 17},
	{72, 63, 73},
	{80, 71, 79},
}

// Captures lists the enemy pieces taken by ally landing on to. It reads the
// board without modifying it, so every direction sees the same position.
//
// A run of one or more contiguous enemy pieces is taken when an ally piece
// closes it on the far side. A corner piece is taken when to is one of its
// neighbours and the other neighbour already holds an ally.
func (b Board) Captures(to Square, ally Cell) []Square {
	enemy := ally.Opponent()
	if enemy == Empty || !to.Valid() {
		return nil
	}
	var out []Square
	for _, d := range orthogonals {
		var run []Square
		closed := false
		scan(to, d, func(sq Square) bool {
			switch b[sq] {
			case enemy:
				run = append(run, sq)
				return true
			case ally:
				closed = len(run) > 0
			}
			return false
		})
		if closed {
			out = append(out, run...)
		}
	}
	for _, c := range corners {
		if b[c.sq] != enemy {
			continue
		}
		if (to == c.n1 && b[c.n2] == ally) || (to == c.n2 && b[c.n1] == ally) {
			out = append(out, c.sq)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Count returns the number of pieces of c on the board.
func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

// Rows returns the board as nine strings of symbols, row a first.
func (b Board) Rows() []string {
	rows := make([]string, Size)
	for r := 0; r < Size; r++ {
		var sb strings.Builder
		for c := 0; c < Size; c++ {
			sb.WriteByte(b[r*Size+c].Symbol())
		}
		rows[r] = sb.String()
	}
	return rows
}

// String draws the board with column numbers across the top and row letters
// down the left:
//
//	  1 2 3 4 5 6 7 8 9
//	a R R R R R R R R R
//	b _ _ _ _ _ _ _ _ _
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString(" ")
	for c := 0; c < Size; c++ {
		sb.WriteByte(' ')
		sb.WriteByte('1' + byte(c))
	}
	sb.WriteByte('\n')
	for r := 0; r < Size; r++ {
		sb.WriteByte('a' + byte(r))
		for c := 0; c < Size; c++ {
			sb.WriteByte(' ')
			sb.WriteByte(b[r*Size+c].Symbol())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render writes String to w.
func (b Board) Render(w io.Writer) error {
	_, err := io.WriteString(w, b.String())
	return err
}
