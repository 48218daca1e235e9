package alarm

import "sync"

// Flag is a cue for remote clients: it only records that the alarm should be
// sounding, and the client plays it.
type Flag struct {
	mu      sync.Mutex
	ringing bool
	count   int
}

func (f *Flag) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ringing = true
	f.count++
}

func (f *Flag) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ringing = false
}

func (f *Flag) Ringing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ringing
}

// Count returns how many times the alarm has been triggered
func (f *Flag) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}
