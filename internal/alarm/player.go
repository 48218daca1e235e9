package alarm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Players lists the supported external players in order of preference
var Players = []string{"mpv", "ffplay", "vlc", "aplay"}

// Player loops an alarm file through an external audio player until Stop is
// called. It implements timer.Cue.
type Player struct {
	file   string
	player string
	bell   io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewPlayer creates a cue for file. player may be "auto" or empty to probe
// Players. When no file or player is available the cue falls back to a
// terminal bell written to bell.
func NewPlayer(file, player string, bell io.Writer) *Player {
	if bell == nil {
		bell = os.Stderr
	}
	return &Player{
		file:     file,
		player:   player,
		bell:     bell,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// Play starts the looping alarm in the background. A second Play while the
// alarm is sounding is ignored.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	if p.file == "" {
		fmt.Fprint(p.bell, "\a")
		return
	}
	if _, err := os.Stat(p.file); err != nil {
		slog.Warn("Alarm file not found, using terminal bell", "file", p.file)
		fmt.Fprint(p.bell, "\a")
		return
	}

	player, err := p.findPlayer()
	if err != nil {
		slog.Warn("No alarm player available, using terminal bell", "error", err)
		fmt.Fprint(p.bell, "\a")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := p.command(ctx, player, loopArgs(player, p.file)...)
	if err := cmd.Start(); err != nil {
		cancel()
		slog.Warn("Failed to start alarm player", "player", player, "error", err)
		fmt.Fprint(p.bell, "\a")
		return
	}

	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	slog.Debug("Alarm playing", "player", player, "file", p.file)

	go func() {
		defer close(done)
		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			slog.Warn("Alarm player exited", "player", player, "error", err)
		}
		p.mu.Lock()
		if p.done == done {
			p.cancel = nil
			p.done = nil
		}
		p.mu.Unlock()
		cancel()
	}()
}

// Stop silences a playing alarm and waits for the player process to exit
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Debug("Alarm stopped")
}

// Playing reports whether the player process is running
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Player) findPlayer() (string, error) {
	if p.player != "" && p.player != "auto" {
		if _, err := p.lookPath(p.player); err != nil {
			return "", fmt.Errorf("configured player %s not found: %w", p.player, err)
		}
		return p.player, nil
	}

	for _, player := range Players {
		if _, err := p.lookPath(player); err == nil {
			return player, nil
		}
	}

	return "", fmt.Errorf("no audio player found (tried: %s)", strings.Join(Players, ", "))
}

// loopArgs builds the command line that repeats file until the process is
// killed. aplay cannot loop, so it plays once.
func loopArgs(player, file string) []string {
	switch player {
	case "mpv":
		return []string{"--no-video", "--loop-file=inf", file}
	case "ffplay":
		return []string{"-nodisp", "-loop", "0", "-loglevel", "quiet", file}
	case "vlc":
		return []string{"--intf", "dummy", "--loop", file}
	default:
		return []string{file}
	}
}
