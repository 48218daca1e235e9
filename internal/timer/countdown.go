package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TickInterval is the wall-clock period of one timer tick
const TickInterval = time.Second

// Countdown owns a Timer and drives it with a ticker goroutine that exists
// only while the timer is running. All methods are safe for concurrent use.
type Countdown struct {
	mu       sync.Mutex
	timer    *Timer
	interval time.Duration
	onTick   func(Snapshot)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCountdown wraps t. onTick, if set, is called after every applied tick
// outside the lock.
func NewCountdown(t *Timer, interval time.Duration, onTick func(Snapshot)) *Countdown {
	if interval <= 0 {
		interval = TickInterval
	}
	return &Countdown{
		timer:    t,
		interval: interval,
		onTick:   onTick,
	}
}

func (c *Countdown) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.timer.Start() {
		return false
	}
	slog.Debug("Countdown started", "seconds", c.timer.remaining)
	c.startDriver()
	return true
}

func (c *Countdown) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopDriver()
	return c.timer.Pause()
}

func (c *Countdown) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.timer.Resume() {
		return false
	}
	c.startDriver()
	return true
}

func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopDriver()
	c.timer.Reset()
}

// Arm resets the timer to idle with a new duration
func (c *Countdown) Arm(seconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopDriver()
	return c.timer.Arm(seconds)
}

// Tick applies one tick immediately, independent of the driver
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	expired := c.timer.Tick()
	if expired {
		c.stopDriver()
	}
	snap := c.timer.Snapshot()
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(snap)
	}
	return expired
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer.Running()
}

func (c *Countdown) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer.Snapshot()
}

// Close stops the driver and waits for it to exit
func (c *Countdown) Close() {
	c.mu.Lock()
	c.stopDriver()
	c.mu.Unlock()

	c.wg.Wait()
}

// startDriver must be called with c.mu held
func (c *Countdown) startDriver() {
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.run(ctx)
}

// stopDriver must be called with c.mu held. A driver blocked on the lock
// sees its cancelled context and exits without ticking.
func (c *Countdown) stopDriver() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		expired := c.timer.Tick()
		snap := c.timer.Snapshot()
		if expired {
			slog.Info("Countdown expired", "initial_seconds", snap.InitialSeconds)
			c.stopDriver()
		}
		c.mu.Unlock()

		if c.onTick != nil {
			c.onTick(snap)
		}
		if expired {
			return
		}
	}
}
