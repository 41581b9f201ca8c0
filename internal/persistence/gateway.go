// Package persistence keeps the chat engine's durable state: three
// independent slots, each holding one complete JSON document.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/mochachat/internal/domain"
)

// Slot names one independently persisted document.
type Slot string

const (
	SlotChats       Slot = "chats"
	SlotCurrentUser Slot = "currentUser"
	SlotDarkMode    Slot = "darkMode"
)

// ErrAlreadyLoaded is returned by a second call to Gateway.Load.
var ErrAlreadyLoaded = errors.New("persistence: state already loaded")

// Snapshot is the full durable state.
type Snapshot struct {
	Chats       []domain.Chat `json:"chats"`
	CurrentUser domain.User   `json:"currentUser"`
	DarkMode    bool          `json:"darkMode"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Chats = domain.CloneChats(s.Chats)
	return s
}

// Gateway reads and writes slots through a KV backend.
type Gateway struct {
	kv     KV
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
}

// NewGateway returns a gateway writing to kv.
func NewGateway(kv KV) *Gateway {
	return &Gateway{
		kv:     kv,
		logger: slog.Default().With("component", "persistence"),
	}
}

// Load reads all slots. A slot that is absent or fails to parse falls back
// to its entry in defaults, and the default is written back so later runs
// start from the same state. Loaded chats have lastMessage recomputed.
//
// Load runs once per gateway; later calls return defaults and ErrAlreadyLoaded.
func (g *Gateway) Load(ctx context.Context, defaults Snapshot) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loaded {
		return defaults, ErrAlreadyLoaded
	}
	g.loaded = true

	out := Snapshot{}

	var chats []domain.Chat
	if g.read(ctx, SlotChats, &chats) {
		for i := range chats {
			chats[i].Normalize()
		}
		out.Chats = chats
	} else {
		out.Chats = domain.CloneChats(defaults.Chats)
		g.seed(ctx, SlotChats, out.Chats)
	}

	var user domain.User
	if g.read(ctx, SlotCurrentUser, &user) {
		user.ID = domain.LocalUserID
		out.CurrentUser = user
	} else {
		out.CurrentUser = defaults.CurrentUser
		g.seed(ctx, SlotCurrentUser, out.CurrentUser)
	}

	var dark bool
	if g.read(ctx, SlotDarkMode, &dark) {
		out.DarkMode = dark
	} else {
		out.DarkMode = defaults.DarkMode
		g.seed(ctx, SlotDarkMode, out.DarkMode)
	}

	return out, nil
}

// read decodes slot into v and reports whether a usable value was found.
func (g *Gateway) read(ctx context.Context, slot Slot, v any) bool {
	data, err := g.kv.Get(ctx, string(slot))
	if errors.Is(err, ErrKeyNotFound) {
		g.logger.Debug("Slot absent, using default", "slot", slot)
		return false
	}
	if err != nil {
		g.logger.Warn("Failed to read slot, using default", "slot", slot, "error", err)
		return false
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		g.logger.Warn("Slot holds no value, using default", "slot", slot)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		g.logger.Warn("Failed to parse slot, using default", "slot", slot, "error", err)
		return false
	}
	return true
}

func (g *Gateway) seed(ctx context.Context, slot Slot, v any) {
	if err := g.write(ctx, slot, v); err != nil {
		g.logger.Warn("Failed to write default slot", "slot", slot, "error", err)
	}
}

func (g *Gateway) write(ctx context.Context, slot Slot, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := g.kv.Put(ctx, string(slot), data); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	return nil
}

// SaveChats overwrites the chats slot.
func (g *Gateway) SaveChats(ctx context.Context, chats []domain.Chat) error {
	return g.write(ctx, SlotChats, chats)
}

// SaveUser overwrites the current-user slot.
func (g *Gateway) SaveUser(ctx context.Context, user domain.User) error {
	return g.write(ctx, SlotCurrentUser, user)
}

// SaveDarkMode overwrites the display-mode slot.
func (g *Gateway) SaveDarkMode(ctx context.Context, on bool) error {
	return g.write(ctx, SlotDarkMode, on)
}

// Close releases the backend.
func (g *Gateway) Close() error {
	return g.kv.Close()
}
