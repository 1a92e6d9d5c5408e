// Package term is the line-oriented terminal front end for local hot-seat
// play: a coloured board renderer and a command loop over an io.Reader.
package term

import (
	"strings"

	"github.com/jaminalder/hasami-shogi/internal/domain"
	"github.com/muesli/termenv"
)

// Palette holds the styles used to draw a board.
type Palette struct {
	out *termenv.Output
}

func NewPalette(out *termenv.Output) Palette { return Palette{out: out} }

func (p Palette) cell(c domain.Cell) string {
	s := p.out.String(string(c.Symbol()))
	switch c {
	case domain.Red:
		s = s.Foreground(p.out.Color("1")).Bold()
	case domain.Black:
		s = s.Foreground(p.out.Color("4")).Bold()
	default:
		s = s.Faint()
	}
	return s.String()
}

func (p Palette) label(text string) string {
	return p.out.String(text).Faint().String()
}

// Side names a side in its own colour.
func (p Palette) Side(c domain.Cell) string {
	s := p.out.String(c.String())
	switch c {
	case domain.Red:
		s = s.Foreground(p.out.Color("1"))
	case domain.Black:
		s = s.Foreground(p.out.Color("4"))
	}
	return s.Bold().String()
}

// Board draws b in the same layout as domain.Board.String, with the pieces
// coloured. highlight squares are drawn reversed.
func (p Palette) Board(b domain.Board, highlight ...domain.Square) string {
	marked := make(map[domain.Square]bool, len(highlight))
	for _, sq := range highlight {
		marked[sq] = true
	}
	var sb strings.Builder
	sb.WriteString(" ")
	for c := 0; c < domain.Size; c++ {
		sb.WriteString(" ")
		sb.WriteString(p.label(string(rune('1' + c))))
	}
	sb.WriteString("\n")
	for r := 0; r < domain.Size; r++ {
		sb.WriteString(p.label(string(rune('a' + r))))
		for c := 0; c < domain.Size; c++ {
			sq, _ := domain.SquareAt(r, c)
			sb.WriteString(" ")
			if marked[sq] {
				sb.WriteString(p.out.String(string(b[sq].Symbol())).Reverse().String())
				continue
			}
			sb.WriteString(p.cell(b[sq]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
