// Package app wires the chat engine together and exposes the commands a
// presentation layer issues against it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/mochachat/internal/chatstore"
	"github.com/nfrund/mochachat/internal/config"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/metrics"
	"github.com/nfrund/mochachat/internal/persistence"
	"github.com/nfrund/mochachat/internal/pubsub"
	"github.com/nfrund/mochachat/internal/reply"
	"github.com/nfrund/mochachat/internal/script"
	"github.com/nfrund/mochachat/internal/seed"
	"github.com/nfrund/mochachat/internal/typing"
	"github.com/samber/do/v2"
)

// ErrUnknownAttachment is returned for attachment kinds the picker does not offer.
var ErrUnknownAttachment = errors.New("unknown attachment kind")

// Session is one running chat client.
type Session struct {
	cfg     config.Config
	store   *chatstore.Store
	tracker *typing.Tracker
	replies *reply.Simulator
	bus     pubsub.Bus
	gateway *persistence.Gateway
	metrics *metrics.Metrics
	tracing *tracing
	watcher *script.Watcher

	now   func() time.Time
	newID func() string

	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

func newMessageID() string {
	return uuid.NewString()
}

// NewSession loads persisted state (seeding it on first start) and starts
// the engine. Close must be called to flush and release storage.
func NewSession(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	injector := do.New()
	register(ctx, injector, cfg, o)

	s := &Session{cfg: cfg, now: o.now, newID: o.newID}

	var err error
	if s.gateway, err = do.Invoke[*persistence.Gateway](injector); err != nil {
		return nil, err
	}
	if s.store, err = do.Invoke[*chatstore.Store](injector); err != nil {
		return nil, s.abort(err)
	}
	s.bus = do.MustInvoke[pubsub.Bus](injector)
	s.tracing = do.MustInvoke[*tracing](injector)
	s.metrics = do.MustInvoke[*metrics.Metrics](injector)
	if s.tracker, err = do.Invoke[*typing.Tracker](injector); err != nil {
		return nil, s.abort(err)
	}
	if s.replies, err = do.Invoke[*reply.Simulator](injector); err != nil {
		return nil, s.abort(err)
	}

	bg, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if sc := do.MustInvoke[*scripting](injector); sc.reply != nil {
		w, err := script.NewWatcher(sc.reply, script.ReloadAnnouncer(s.bus, sc.reply.Path()))
		if err != nil {
			slog.Warn("Reply script hot reload disabled", "error", err)
		} else {
			s.watcher = w
			go w.Run(bg)
		}
	}

	logStartup(cfg, s.store.CurrentUser())
	return s, nil
}

// abort releases what NewSession opened before failing with err.
func (s *Session) abort(err error) error {
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.tracing != nil {
		s.tracing.cleanup()
	}
	if cerr := s.gateway.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Store exposes the underlying chat store for read access.
func (s *Session) Store() *chatstore.Store {
	return s.store
}

// Tracker exposes the typing tracker.
func (s *Session) Tracker() *typing.Tracker {
	return s.tracker
}

// Metrics returns the session's metric registry.
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// Config returns the configuration the session was started with.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Chats returns the chat list ordered by recency, filtered by participant
// name when search is not empty.
func (s *Session) Chats(search string) []domain.Chat {
	chats := chatstore.SortedByRecency(s.store.Chats())
	return chatstore.FilterByName(chats, s.store.Directory(), search)
}

// Chat returns the conversation with participantID.
func (s *Session) Chat(participantID string) (domain.Chat, error) {
	c, ok := s.store.ChatForParticipant(participantID)
	if !ok {
		return domain.Chat{}, fmt.Errorf("chat with %q: %w", participantID, domain.ErrNotFound)
	}
	return c, nil
}

// Send commits a text message to participantID and may schedule a reply.
// It returns as soon as the message is stored.
func (s *Session) Send(ctx context.Context, participantID, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	return s.send(ctx, participantID, text)
}

// SendAttachment sends the placeholder text of an attachment of kind.
func (s *Session) SendAttachment(ctx context.Context, participantID, kind string) (domain.Message, error) {
	if !slices.Contains(seed.AttachmentKinds(), kind) {
		return domain.Message{}, fmt.Errorf("%w: %q", ErrUnknownAttachment, kind)
	}
	return s.send(ctx, participantID, seed.AttachmentLabel(kind))
}

func (s *Session) send(ctx context.Context, participantID, text string) (domain.Message, error) {
	c, err := s.Chat(participantID)
	if err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:         s.newID(),
		SenderID:   domain.LocalUserID,
		ReceiverID: participantID,
		Text:       text,
		Timestamp:  s.now().UTC(),
		Status:     domain.StatusSent,
	}
	if !s.store.AddMessage(ctx, c.ID, msg) {
		return domain.Message{}, fmt.Errorf("chat %s: %w", c.ID, domain.ErrNotFound)
	}
	s.replies.Schedule(c.ID, participantID)
	return msg, nil
}

// MarkRead marks the conversation with participantID as read. It reports
// whether anything changed.
func (s *Session) MarkRead(ctx context.Context, participantID string) (bool, error) {
	c, err := s.Chat(participantID)
	if err != nil {
		return false, err
	}
	return s.store.MarkChatAsRead(ctx, c.ID), nil
}

// SetTyping sets the typing indicator of userID.
func (s *Session) SetTyping(ctx context.Context, userID string, isTyping bool) bool {
	return s.tracker.SetTyping(ctx, userID, isTyping)
}

// UpdateProfile replaces the local user's profile. An empty id is taken to
// mean the local user.
func (s *Session) UpdateProfile(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		user.ID = domain.LocalUserID
	}
	if err := user.ValidateLocalProfile(); err != nil {
		return err
	}
	s.store.UpdateUserProfile(ctx, user)
	return nil
}

// ResetHistory replaces every chat with freshly seeded content.
func (s *Session) ResetHistory(ctx context.Context) {
	s.store.ResetChatHistory(ctx)
}

// ToggleDisplayMode flips the dark mode preference and returns the new value.
func (s *Session) ToggleDisplayMode(ctx context.Context) bool {
	return s.store.ToggleDisplayMode(ctx)
}

// Composer returns a debounced draft tracker for the conversation with
// participantID. Close it when the conversation is left.
func (s *Session) Composer(participantID string) *typing.Composer {
	return typing.NewComposer(s.cfg.Typing.Debounce, func(isTyping bool) {
		s.tracker.SetTyping(context.Background(), participantID, isTyping)
	})
}

// Subscribe delivers every committed state change to fn until ctx is canceled.
func (s *Session) Subscribe(ctx context.Context, fn func(chatstore.StateChanged)) error {
	return pubsub.Subscribe(ctx, s.bus, chatstore.TopicStateChanged.Name(), func(_ context.Context, ev chatstore.StateChanged) error {
		fn(ev)
		return nil
	})
}

// SubscribeTyping delivers typing changes of participantID to fn until ctx
// is canceled.
func (s *Session) SubscribeTyping(ctx context.Context, participantID string, fn func(typing.Event)) error {
	return s.tracker.Subscribe(ctx, s.bus, participantID, fn)
}

// PendingReplies returns the number of simulated replies still in flight.
func (s *Session) PendingReplies() int {
	return s.replies.Pending()
}

// Close stops pending replies and the script watcher, then releases the bus
// and storage. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.watcher != nil {
			<-s.watcher.Done()
		}
		s.replies.Shutdown()

		var errs []error
		if err := s.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close bus: %w", err))
		}
		if err := s.gateway.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
		s.tracing.cleanup()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
