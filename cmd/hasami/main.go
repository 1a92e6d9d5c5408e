// Command hasami runs a local hot-seat game of Hasami Shogi in the terminal.
// With -addr it also serves a read-only spectator view of the game.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jaminalder/hasami-shogi/internal/app"
	"github.com/jaminalder/hasami-shogi/internal/domain"
	"github.com/jaminalder/hasami-shogi/internal/term"
	"github.com/jaminalder/hasami-shogi/internal/web"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
)

func main() {
	_ = godotenv.Load()

	// Flags (env fallbacks)
	addr := flag.String("addr", getenv("HASAMI_ADDR", ""), "spectator listen address, e.g. :8080 (empty disables)")
	first := flag.String("first", getenv("HASAMI_FIRST", "red"), "side that opens: red or black")
	noColor := flag.Bool("no-color", os.Getenv("NO_COLOR") != "", "draw the board without colour")
	verbose := flag.Bool("v", getenb("HASAMI_VERBOSE", false), "log game events to stderr")
	flag.Parse()

	side, ok := domain.ParsePlayer(*first)
	if !ok {
		log.Fatalf("invalid -first %q; valid: red, black", *first)
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "hasami ", log.LstdFlags|log.Lmicroseconds)
	}

	svc := app.NewService(
		app.WithLogger(logger),
		app.WithGameOptions(domain.WithFirstPlayer(side)),
	)
	gs, err := svc.CreateGame()
	if err != nil {
		log.Fatalf("create game: %v", err)
	}

	if *addr != "" {
		srv := &http.Server{Addr: *addr, Handler: web.NewServer(svc)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("http: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Printf("Spectate at http://%s/game/%s", displayAddr(*addr), gs.ID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []termenv.OutputOption
	if *noColor {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(os.Stdout, opts...)

	// Reading stdin blocks, so an interrupt ends main without waiting for the loop.
	type outcome struct {
		gs  *app.GameState
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		final, err := term.NewLoop(svc, gs.ID, out).Run(ctx, os.Stdin)
		done <- outcome{final, err}
	}()
	select {
	case <-ctx.Done():
		logger.Printf("interrupted")
	case res := <-done:
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			log.Printf("game ended: %v", res.err)
		}
		if res.gs != nil {
			logger.Printf("final state %s after %d moves", res.gs.Game.State(), res.gs.Game.Moves())
		}
	}
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
