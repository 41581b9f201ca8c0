package chatstore

import (
	"github.com/nfrund/mochachat/internal/persistence"
	"github.com/nfrund/mochachat/internal/pubsub"
)

// Reason names the mutation that produced a state change.
type Reason string

const (
	ReasonMessageAdded       Reason = "message_added"
	ReasonChatRead           Reason = "chat_read"
	ReasonProfileUpdated     Reason = "profile_updated"
	ReasonHistoryReset       Reason = "history_reset"
	ReasonDisplayModeToggled Reason = "display_mode_toggled"
)

// StateChanged is published after every committed mutation. Version grows by
// one per commit, so observers receiving events out of order can discard
// stale snapshots.
type StateChanged struct {
	Version  uint64               `json:"version"`
	Reason   Reason               `json:"reason"`
	ChatID   string               `json:"chatId,omitempty"`
	Snapshot persistence.Snapshot `json:"snapshot"`
}

// TopicStateChanged carries StateChanged events.
var TopicStateChanged = pubsub.NewEvent[StateChanged](
	"chat.state.changed",
	"",
	"Published after every committed chat store mutation with the full new state",
)
