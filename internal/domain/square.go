package domain

import (
	"fmt"
	"strings"
)

const (
	Size       = 9
	NumSquares = Size * Size
)

// Square is a row-major index into the board, 0 (a1) through 80 (i9).
type Square int

// NoSquare is returned alongside errors.
const NoSquare Square = -1

// SquareAt converts row and column (0..8) to a square.
func SquareAt(row, col int) (Square, bool) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return NoSquare, false
	}
	return Square(row*Size + col), true
}

func (s Square) Row() int    { return int(s) / Size }
func (s Square) Col() int    { return int(s) % Size }
func (s Square) Valid() bool { return s >= 0 && s < NumSquares }

// String renders the square in notation, e.g. "e5".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{'a' + byte(s.Row()), '1' + byte(s.Col())})
}

// ParseSquare reads a row letter a..i followed by a column digit 1..9.
func ParseSquare(pos string) (Square, error) {
	t := strings.ToLower(strings.TrimSpace(pos))
	if len(t) != 2 || t[0] < 'a' || t[0] > 'i' || t[1] < '1' || t[1] > '9' {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidNotation, pos)
	}
	sq, _ := SquareAt(int(t[0]-'a'), int(t[1]-'1'))
	return sq, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(pos string) Square {
	sq, err := ParseSquare(pos)
	if err != nil {
		panic(err)
	}
	return sq
}
