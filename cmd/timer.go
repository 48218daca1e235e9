package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/audiolibrelab/jamroll/internal/alarm"
	"github.com/audiolibrelab/jamroll/internal/timer"

	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer [minutes|Random]",
	Short: "Run a session countdown in the terminal",
	Long: `Count down a creative session and sound the alarm when time runs out.

The alarm loops the configured audio file through an external player
(mpv, ffplay, vlc or aplay) until Enter is pressed. Without a file or player
the terminal bell is used instead.

Press Enter while the timer runs to pause or resume it, Ctrl+C to abort.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := cfg.DefaultSelection()
		if len(args) == 1 {
			sel = timer.Selection(args[0])
		}
		sel = resolveSelection(sel, cfg.EngineOptions().RandomMinutes)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runCountdown(ctx, sel, countdownIO{
			in:       os.Stdin,
			out:      os.Stdout,
			cue:      alarm.NewPlayer(cfg.Alarm.File, cfg.Alarm.Player, os.Stderr),
			interval: timer.TickInterval,
		})
	},
}

// resolveSelection turns "Random" into a concrete duration
func resolveSelection(sel timer.Selection, candidates []int) timer.Selection {
	if !sel.IsRandom() || len(candidates) == 0 {
		return sel
	}
	return timer.SelectionFromMinutes(candidates[rand.IntN(len(candidates))])
}

// countdownIO carries the terminal the countdown runs on
type countdownIO struct {
	in       io.Reader
	out      io.Writer
	cue      timer.Cue
	interval time.Duration
}

func runCountdown(ctx context.Context, sel timer.Selection, tio countdownIO) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &lockedWriter{w: tio.out}

	expired := make(chan struct{})
	var once sync.Once
	countdown := timer.NewCountdown(timer.New(sel.Seconds(), tio.cue), tio.interval, func(s timer.Snapshot) {
		fmt.Fprintf(out, "\r⏱  %s ", s.Display)
		if s.State == timer.StateExpired {
			once.Do(func() { close(expired) })
		}
	})
	defer countdown.Close()

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(tio.in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	slog.Info("Session timer started", "minutes", sel.Minutes())
	fmt.Fprintf(out, "⏱  %s ", timer.Format(sel.Seconds()))
	countdown.Start()

	for {
		select {
		case <-ctx.Done():
			countdown.Reset()
			fmt.Fprintln(out)
			slog.Info("Session timer aborted")
			return nil
		case _, ok := <-lines:
			if !ok {
				// no terminal input: run to expiry without pause control
				lines = nil
				continue
			}
			snap := countdown.Snapshot()
			if snap.State == timer.StateExpired {
				countdown.Reset()
				return nil
			}
			if snap.IsPaused {
				countdown.Resume()
				fmt.Fprint(out, "(resumed) ")
			} else if countdown.Pause() {
				fmt.Fprint(out, "(paused, Enter to resume) ")
			}
		case <-expired:
			if lines == nil {
				fmt.Fprintln(out, "\nTime's up!")
				countdown.Reset()
				return nil
			}
			fmt.Fprintln(out, "\nTime's up! Press Enter to stop the alarm.")
			select {
			case <-lines:
			case <-ctx.Done():
			}
			countdown.Reset()
			return nil
		}
	}
}

// lockedWriter serializes writes from the tick callback and the input loop
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
