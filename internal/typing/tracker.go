// Package typing tracks which participants are composing a message.
package typing

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/nfrund/mochachat/internal/pubsub"
)

// Tracker holds the transient typing map. Entries exist only while a
// participant is typing; an absent entry means false.
type Tracker struct {
	mu        sync.RWMutex
	typing    map[string]bool
	seq       uint64
	publisher pubsub.Publisher
	logger    *slog.Logger
}

// NewTracker creates a tracker publishing changes to publisher.
func NewTracker(publisher pubsub.Publisher) *Tracker {
	return &Tracker{
		typing:    make(map[string]bool),
		publisher: publisher,
		logger:    slog.Default().With("component", "typing"),
	}
}

// SetTyping records the typing state of userID. When the value equals the
// current one nothing changes and nothing is published; the return value
// reports whether a change happened.
func (t *Tracker) SetTyping(ctx context.Context, userID string, isTyping bool) bool {
	t.mu.Lock()
	if t.typing[userID] == isTyping {
		t.mu.Unlock()
		return false
	}
	if isTyping {
		t.typing[userID] = true
	} else {
		delete(t.typing, userID)
	}
	t.seq++
	event := Event{UserID: userID, IsTyping: isTyping, Seq: t.seq}

	// Release lock before publishing to avoid deadlock
	t.mu.Unlock()

	t.logger.Debug("Typing state changed", "user_id", userID, "is_typing", isTyping)
	t.publish(ctx, event)
	return true
}

// IsTyping reports whether userID is currently typing.
func (t *Tracker) IsTyping(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typing[userID]
}

// Typing returns the ids of all participants currently typing, sorted.
func (t *Tracker) Typing() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.typing))
	for id := range t.typing {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Subscribe delivers the typing changes of userID to handler.
func (t *Tracker) Subscribe(ctx context.Context, subscriber pubsub.Subscriber, userID string, handler func(Event)) error {
	return pubsub.Subscribe(ctx, subscriber, TopicTyping.Scoped(userID), func(_ context.Context, ev Event) error {
		handler(ev)
		return nil
	})
}

func (t *Tracker) publish(ctx context.Context, event Event) {
	if t.publisher == nil {
		return
	}
	err := pubsub.PublishScoped(ctx, t.publisher, TopicTyping, event.UserID, event, map[string]string{
		"seq": strconv.FormatUint(event.Seq, 10),
	})
	if err != nil {
		t.logger.Error("Failed to publish typing update",
			"error", err,
			"topic", TopicTyping.Scoped(event.UserID))
	}
}
