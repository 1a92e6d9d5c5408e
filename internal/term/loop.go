package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jaminalder/hasami-shogi/internal/app"
	"github.com/jaminalder/hasami-shogi/internal/domain"
	"github.com/muesli/termenv"
)

const helpText = `commands:
  <from> <to>   move a piece, e.g. "a1 e1" or "a1-e1"
  legal <sq>    list where the piece on <sq> can go
  board         redraw the board
  help          show this text
  quit          leave the game
`

// Loop drives one game of the service from line-oriented input.
type Loop struct {
	svc *app.Service
	id  string
	out *termenv.Output
	pal Palette
}

func NewLoop(svc *app.Service, id string, out *termenv.Output) *Loop {
	return &Loop{svc: svc, id: id, out: out, pal: NewPalette(out)}
}

// Run reads commands from in until the game is won, input ends, the user
// quits or ctx is done. It returns the final game state.
func (l *Loop) Run(ctx context.Context, in io.Reader) (*app.GameState, error) {
	gs, ok := l.svc.Get(l.id)
	if !ok {
		return nil, app.ErrNotFound
	}
	l.printBoard(gs)
	l.prompt(gs)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return gs, err
		}
		done, err := l.handle(sc.Text())
		if err != nil {
			return gs, err
		}
		if gs, ok = l.svc.Get(l.id); !ok {
			return nil, app.ErrNotFound
		}
		if done || gs.Game.State() != domain.InProgress {
			return gs, nil
		}
		l.prompt(gs)
	}
	return gs, sc.Err()
}

// handle executes one input line. done is true when the user asked to leave.
func (l *Loop) handle(line string) (done bool, err error) {
	fields := strings.Fields(strings.ReplaceAll(line, "-", " "))
	if len(fields) == 0 {
		return false, nil
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		l.printf("%s", helpText)
		return false, nil
	case "board":
		gs, ok := l.svc.Get(l.id)
		if !ok {
			return false, app.ErrNotFound
		}
		l.printBoard(gs)
		return false, nil
	case "legal":
		if len(fields) != 2 {
			l.printf("usage: legal <square>\n")
			return false, nil
		}
		return false, l.legal(fields[1])
	}
	if len(fields) != 2 {
		l.printf("unknown command %q, type help\n", line)
		return false, nil
	}
	return false, l.move(fields[0], fields[1])
}

func (l *Loop) legal(pos string) error {
	sq, err := domain.ParseSquare(pos)
	if err != nil {
		l.printf("%s is not a square\n", pos)
		return nil
	}
	gs, ok := l.svc.Get(l.id)
	if !ok {
		return app.ErrNotFound
	}
	dests := gs.Game.LegalDestinations(sq)
	if len(dests) == 0 {
		l.printf("no moves from %s\n", sq)
		return nil
	}
	names := make([]string, len(dests))
	for i, d := range dests {
		names[i] = d.String()
	}
	l.printf("%s\n", l.pal.Board(gs.Game.Board(), dests...))
	l.printf("%s: %s\n", sq, strings.Join(names, " "))
	return nil
}

func (l *Loop) move(origin, target string) error {
	res, err := l.svc.Move(l.id, origin, target)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrNotFound):
		return err
	default:
		l.printf("%s\n", describe(err, origin, target))
		return nil
	}

	gs := res.State
	l.printBoard(&gs)
	if len(res.Captured) > 0 {
		names := make([]string, len(res.Captured))
		for i, sq := range res.Captured {
			names[i] = sq.String()
		}
		l.printf("%s captured %s\n", l.pal.Side(res.Mover), strings.Join(names, " "))
	}
	if w := gs.Game.Winner(); w != domain.Empty {
		l.printf("%s wins, %d pieces captured\n", l.pal.Side(w), gs.Game.Captured(w))
	}
	return nil
}

// describe turns a rejected move into a short message.
func describe(err error, origin, target string) string {
	switch {
	case errors.Is(err, domain.ErrInvalidNotation):
		return "squares are a row a-i and a column 1-9, e.g. e5"
	case errors.Is(err, domain.ErrNotYourPiece):
		return fmt.Sprintf("no piece of yours on %s", origin)
	case errors.Is(err, domain.ErrIllegalMove):
		return fmt.Sprintf("%s cannot reach %s", origin, target)
	case errors.Is(err, domain.ErrGameOver):
		return "the game is over"
	default:
		return "invalid move: " + err.Error()
	}
}

func (l *Loop) prompt(gs *app.GameState) {
	l.printf("%s [%d-%d]> ", l.pal.Side(gs.Game.Turn()), gs.Game.Captured(domain.Red), gs.Game.Captured(domain.Black))
}

func (l *Loop) printBoard(gs *app.GameState) {
	l.printf("%s", l.pal.Board(gs.Game.Board()))
}

func (l *Loop) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}
