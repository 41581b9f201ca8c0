// Package reply simulates the remote side of a conversation.
//
// After the local user sends a message the simulator may schedule one
// synthetic answer. The pending callback captures only the chat id, so a
// history reset in between turns the late delivery into an ordinary
// not-found or append against whatever chat holds that id then.
package reply

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/seed"
)

// Adder is the store operation replies are delivered through.
type Adder interface {
	AddMessage(ctx context.Context, chatID string, msg domain.Message) bool
}

// Request describes the reply being produced.
type Request struct {
	ChatID       string
	RemoteUserID string
}

// Picker chooses the text of a simulated reply.
type Picker interface {
	Pick(req Request) (string, error)
}

// Recorder observes the simulator, typically for metrics.
type Recorder interface {
	ReplyScheduled(delay time.Duration)
	ReplyDelivered(applied bool)
}

// Timer is the handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Config holds the randomized reply parameters.
type Config struct {
	Probability float64
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultConfig answers 70% of messages after one to four seconds.
func DefaultConfig() Config {
	return Config{
		Probability: 0.7,
		MinDelay:    1000 * time.Millisecond,
		MaxDelay:    4000 * time.Millisecond,
	}
}

// Simulator schedules synthetic inbound messages.
type Simulator struct {
	cfg      Config
	adder    Adder
	picker   Picker
	fallback Picker
	recorder Recorder
	now      func() time.Time
	newID    func() string
	after    AfterFunc
	logger   *slog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	pending map[uint64]Timer
	next    uint64
	stopped bool

	// inflight counts callbacks that left pending and have not finished.
	inflight sync.WaitGroup
}

// Option is a function that configures a Simulator.
type Option func(*Simulator)

// WithRand makes the reply decision and delay deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithClock sets the timestamp source for replies.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithIDSource sets the message id generator.
func WithIDSource(newID func() string) Option {
	return func(s *Simulator) { s.newID = newID }
}

// WithAfterFunc replaces time.AfterFunc, e.g. with a manual scheduler in tests.
func WithAfterFunc(after AfterFunc) Option {
	return func(s *Simulator) { s.after = after }
}

// WithPicker sets the reply text source. The fixed pool is used whenever the
// picker fails.
func WithPicker(p Picker) Option {
	return func(s *Simulator) {
		if p != nil {
			s.picker = p
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) {
		if r != nil {
			s.recorder = r
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) ReplyScheduled(time.Duration) {}
func (nopRecorder) ReplyDelivered(bool)          {}

// New creates a simulator delivering replies to adder.
func New(cfg Config, adder Adder, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:      cfg,
		adder:    adder,
		recorder: nopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		logger:  slog.Default().With("component", "reply"),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x7265706c79)),
		pending: make(map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fallback = NewPoolPicker(seed.ReplyPool(), s.intN)
	if s.picker == nil {
		s.picker = s.fallback
	}
	return s
}

// Schedule decides whether remoteUserID answers in chatID and, if so,
// schedules the answer. It reports whether a reply was scheduled.
func (s *Simulator) Schedule(chatID, remoteUserID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if s.rng.Float64() >= s.cfg.Probability {
		s.logger.Debug("No reply this time", "chat_id", chatID)
		return false
	}
	delay := s.delayLocked()

	s.next++
	key := s.next
	s.pending[key] = s.after(delay, func() {
		s.deliver(key, chatID, remoteUserID)
	})

	s.recorder.ReplyScheduled(delay)
	s.logger.Debug("Reply scheduled", "chat_id", chatID, "from", remoteUserID, "delay", delay)
	return true
}

func (s *Simulator) delayLocked() time.Duration {
	lo, hi := s.cfg.MinDelay, s.cfg.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)+1))
}

func (s *Simulator) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *Simulator) deliver(key uint64, chatID, remoteUserID string) {
	s.mu.Lock()
	if _, ok := s.pending[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	req := Request{ChatID: chatID, RemoteUserID: remoteUserID}
	text, err := s.picker.Pick(req)
	if err != nil || text == "" {
		if err != nil {
			s.logger.Warn("Reply picker failed, using the default pool", "error", err)
		}
		text, _ = s.fallback.Pick(req)
	}

	msg := domain.Message{
		ID:         s.newID(),
		SenderID:   remoteUserID,
		ReceiverID: domain.LocalUserID,
		Text:       text,
		Timestamp:  s.now().UTC(),
		Status:     domain.StatusSent,
		IsRead:     true,
	}
	applied := s.adder.AddMessage(context.Background(), chatID, msg)
	s.recorder.ReplyDelivered(applied)
	if !applied {
		s.logger.Debug("Reply target no longer exists", "chat_id", chatID, "message_id", msg.ID)
	}
}

// Pending returns the number of scheduled replies not yet delivered.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown stops every pending timer, rejects further scheduling and waits
// for replies already being delivered. It is meant for process exit only;
// closing a chat view does not cancel replies.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}
