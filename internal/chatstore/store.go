// Package chatstore owns the authoritative chat collection, the local user
// profile and the display-mode preference.
//
// All mutations are serialized by one lock. The affected persistence slot is
// written before the lock is released, so durable writes happen in commit
// order; the change notification is published after release.
package chatstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/mochachat/internal/directory"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/persistence"
	"github.com/nfrund/mochachat/internal/pubsub"
)

// Persister writes one slot of the durable state.
type Persister interface {
	SaveChats(ctx context.Context, chats []domain.Chat) error
	SaveUser(ctx context.Context, user domain.User) error
	SaveDarkMode(ctx context.Context, on bool) error
}

// Seeder produces a fresh chat collection for a history reset.
type Seeder interface {
	Chats() []domain.Chat
}

// Recorder observes store activity, typically for metrics.
type Recorder interface {
	MutationCommitted(reason string)
	PersistFailed(slot string)
}

type nopRecorder struct{}

func (nopRecorder) MutationCommitted(string) {}
func (nopRecorder) PersistFailed(string)     {}

// Store is the single writer of chat state.
type Store struct {
	mu      sync.RWMutex
	state   persistence.Snapshot
	version uint64

	dir       *directory.Directory
	seeder    Seeder
	persister Persister
	publisher pubsub.Publisher
	recorder  Recorder
	logger    *slog.Logger
}

// Option is a function that configures a Store.
type Option func(*Store)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a store holding initial, typically the result of
// persistence.Gateway.Load.
func New(initial persistence.Snapshot, dir *directory.Directory, seeder Seeder, persister Persister, publisher pubsub.Publisher, opts ...Option) *Store {
	s := &Store{
		state:     initial.Clone(),
		dir:       dir,
		seeder:    seeder,
		persister: persister,
		publisher: publisher,
		recorder:  nopRecorder{},
		logger:    slog.Default().With("component", "chatstore"),
	}
	s.state.CurrentUser.ID = domain.LocalUserID
	for i := range s.state.Chats {
		s.state.Chats[i].Normalize()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMessage appends msg to the chat with chatID. It is a no-op returning
// false when the chat does not exist or already holds a message with msg.ID.
func (s *Store) AddMessage(ctx context.Context, chatID string, msg domain.Message) bool {
	s.mu.Lock()

	i := s.indexLocked(chatID)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("Chat not found, message dropped", "chat_id", chatID, "message_id", msg.ID)
		return false
	}
	if !s.state.Chats[i].Append(msg) {
		s.mu.Unlock()
		s.logger.Debug("Duplicate message ignored", "chat_id", chatID, "message_id", msg.ID)
		return false
	}

	s.persistLocked(ctx, persistence.SlotChats)
	event := s.commitLocked(ReasonMessageAdded, chatID)
	s.mu.Unlock()

	s.publish(ctx, event)
	return true
}

// MarkChatAsRead applies only when the chat holds unread remote messages.
// It then marks every remote message as read and sets the delivery status of
// every local message to read. Otherwise it reports false and neither
// persists nor notifies; local messages alone never trigger a commit.
func (s *Store) MarkChatAsRead(ctx context.Context, chatID string) bool {
	s.mu.Lock()

	i := s.indexLocked(chatID)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("Chat not found, nothing to mark", "chat_id", chatID)
		return false
	}
	if s.state.Chats[i].UnreadCount() == 0 {
		s.mu.Unlock()
		return false
	}

	changed := 0
	msgs := s.state.Chats[i].Messages
	for j := range msgs {
		m := &msgs[j]
		switch {
		case m.FromLocalUser() && m.Status != domain.StatusRead:
			m.Status = domain.StatusRead
			changed++
		case !m.FromLocalUser() && !m.IsRead:
			m.IsRead = true
			changed++
		}
	}
	s.state.Chats[i].Normalize()

	s.persistLocked(ctx, persistence.SlotChats)
	event := s.commitLocked(ReasonChatRead, chatID)
	s.mu.Unlock()

	s.logger.Debug("Chat marked as read", "chat_id", chatID, "messages", changed)
	s.publish(ctx, event)
	return true
}

// UpdateUserProfile replaces the local user record wholesale. The id is
// always forced to the reserved local id.
func (s *Store) UpdateUserProfile(ctx context.Context, user domain.User) {
	user.ID = domain.LocalUserID

	s.mu.Lock()
	s.state.CurrentUser = user
	s.persistLocked(ctx, persistence.SlotCurrentUser)
	event := s.commitLocked(ReasonProfileUpdated, "")
	s.mu.Unlock()

	s.publish(ctx, event)
}

// ResetChatHistory replaces every chat with a freshly seeded collection.
func (s *Store) ResetChatHistory(ctx context.Context) {
	fresh := s.seeder.Chats()
	for i := range fresh {
		fresh[i].Normalize()
	}

	s.mu.Lock()
	s.state.Chats = fresh
	s.persistLocked(ctx, persistence.SlotChats)
	event := s.commitLocked(ReasonHistoryReset, "")
	s.mu.Unlock()

	s.logger.Info("Chat history reset", "chats", len(fresh))
	s.publish(ctx, event)
}

// ToggleDisplayMode flips the dark-mode preference and returns the new value.
func (s *Store) ToggleDisplayMode(ctx context.Context) bool {
	s.mu.Lock()
	s.state.DarkMode = !s.state.DarkMode
	on := s.state.DarkMode
	s.persistLocked(ctx, persistence.SlotDarkMode)
	event := s.commitLocked(ReasonDisplayModeToggled, "")
	s.mu.Unlock()

	s.publish(ctx, event)
	return on
}

// DarkMode returns the display-mode preference.
func (s *Store) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DarkMode
}

// Chat returns a copy of the chat with chatID.
func (s *Store) Chat(chatID string) (domain.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(chatID)
	if i < 0 {
		return domain.Chat{}, false
	}
	return s.state.Chats[i].Clone(), true
}

// ChatForParticipant returns a copy of the chat with userID.
func (s *Store) ChatForParticipant(userID string) (domain.Chat, bool) {
	return s.Chat(domain.ChatIDFor(userID))
}

// Chats returns a copy of the chat collection in storage order.
func (s *Store) Chats() []domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneChats(s.state.Chats)
}

// CurrentUser returns the live local user profile.
func (s *Store) CurrentUser() domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentUser
}

// UserByID resolves a participant. The reserved local id always resolves to
// the live profile.
func (s *Store) UserByID(userID string) (domain.User, bool) {
	if userID == domain.LocalUserID {
		return s.CurrentUser(), true
	}
	return s.dir.Lookup(userID)
}

// Directory returns the participant directory the store resolves names with.
func (s *Store) Directory() *directory.Directory {
	return s.dir
}

// Snapshot returns a consistent copy of the whole state and its version.
func (s *Store) Snapshot() (persistence.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

// UnreadCount returns the number of unread remote messages in a chat.
func (s *Store) UnreadCount(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(chatID)
	if i < 0 {
		return 0
	}
	return s.state.Chats[i].UnreadCount()
}

// TotalUnread returns the unread count across all chats.
func (s *Store) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.state.Chats {
		n += s.state.Chats[i].UnreadCount()
	}
	return n
}

func (s *Store) indexLocked(chatID string) int {
	for i := range s.state.Chats {
		if s.state.Chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

// persistLocked writes slot. Failures are logged and counted; the in-memory
// commit stands.
func (s *Store) persistLocked(ctx context.Context, slot persistence.Slot) {
	var err error
	switch slot {
	case persistence.SlotChats:
		err = s.persister.SaveChats(ctx, s.state.Chats)
	case persistence.SlotCurrentUser:
		err = s.persister.SaveUser(ctx, s.state.CurrentUser)
	case persistence.SlotDarkMode:
		err = s.persister.SaveDarkMode(ctx, s.state.DarkMode)
	}
	if err != nil {
		s.recorder.PersistFailed(string(slot))
		s.logger.Warn("Failed to persist state", "slot", slot, "error", err)
	}
}

func (s *Store) commitLocked(reason Reason, chatID string) StateChanged {
	s.version++
	s.recorder.MutationCommitted(string(reason))
	return StateChanged{
		Version:  s.version,
		Reason:   reason,
		ChatID:   chatID,
		Snapshot: s.state.Clone(),
	}
}

func (s *Store) publish(ctx context.Context, event StateChanged) {
	if s.publisher == nil {
		return
	}
	err := pubsub.Publish(ctx, s.publisher, TopicStateChanged, event)
	if err != nil {
		s.logger.Error("Failed to publish state change",
			"error", err,
			"topic", TopicStateChanged.Name(),
			"version", event.Version)
	}
}
