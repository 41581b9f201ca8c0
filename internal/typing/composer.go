package typing

import (
	"sync"
	"time"
)

// DefaultDebounce is how long the composer waits after the last keystroke
// before reporting the typing state.
const DefaultDebounce = 500 * time.Millisecond

// Composer applies the keystroke debounce for one draft. Every Update
// restarts the timer; when it fires the composer reports whether the draft
// is non-empty. Close cancels the timer and reports false immediately.
type Composer struct {
	mu     sync.Mutex
	delay  time.Duration
	report func(isTyping bool)

	draft  string
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewComposer returns a composer calling report with the debounced state.
// A non-positive delay selects DefaultDebounce.
func NewComposer(delay time.Duration, report func(isTyping bool)) *Composer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Composer{delay: delay, report: report}
}

// Update records the current draft and restarts the debounce timer.
func (c *Composer) Update(draft string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.draft = draft
	if c.timer != nil {
		c.timer.Stop()
	}
	// gen invalidates a callback whose timer fired while we held the lock.
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() {
		c.fire(gen)
	})
}

func (c *Composer) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return
	}
	c.timer = nil
	// Reports happen under the lock so a late fire cannot follow Close's false.
	c.report(len(c.draft) > 0)
}

// Close cancels any pending report and reports false. Updates after Close
// are ignored. Close is idempotent.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.report(false)
}
