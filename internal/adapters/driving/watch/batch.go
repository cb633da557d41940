package watch

import (
	"sort"
	"sync"
	"time"
)

// batch collects changed paths until no new change arrives for delay.
type batch struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	ready   chan struct{}
}

func newBatch(delay time.Duration) *batch {
	return &batch{
		delay:   delay,
		pending: make(map[string]struct{}),
		ready:   make(chan struct{}, 1),
	}
}

// Add records a path and restarts the quiet period.
func (b *batch) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[path] = struct{}{}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, func() {
		select {
		case b.ready <- struct{}{}:
		default:
		}
	})
}

// Ready fires once the quiet period after the last Add has passed.
func (b *batch) Ready() <-chan struct{} {
	return b.ready
}

// Take returns the pending paths sorted and clears them.
func (b *batch) Take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, 0, len(b.pending))
	for p := range b.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	b.pending = make(map[string]struct{})
	return paths
}

// Len returns the number of pending paths.
func (b *batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stop cancels a pending timer.
func (b *batch) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
