package domain

import "time"

const chatIDPrefix = "chat-"

// ChatIDFor derives the id of the conversation with participantID. Chat ids
// are never allocated separately; there is exactly one chat per participant.
func ChatIDFor(participantID string) string {
	return chatIDPrefix + participantID
}

// Chat is a conversation between the local user and one remote participant
// (which may itself be a group).
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	LastMessage  *Message  `json:"lastMessage,omitempty"`
}

// NewChat returns an empty chat with participantID.
func NewChat(participantID string) Chat {
	return Chat{
		ID:           ChatIDFor(participantID),
		Participants: []string{participantID, LocalUserID},
		Messages:     []Message{},
	}
}

// RemoteParticipant returns the id of the participant that is not the local
// user, or "" when the chat has none.
func (c Chat) RemoteParticipant() string {
	for _, id := range c.Participants {
		if id != LocalUserID {
			return id
		}
	}
	return ""
}

// HasParticipant reports whether userID takes part in the chat.
func (c Chat) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// ContainsID reports whether a message with id is already part of the chat.
// It is the precondition check of Append, not an optimization.
func (c Chat) ContainsID(id string) bool {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return true
		}
	}
	return false
}

// Append adds msg to the end of the chat unless a message with the same id
// already exists. It reports whether the chat changed.
func (c *Chat) Append(msg Message) bool {
	if c.ContainsID(msg.ID) {
		return false
	}
	c.Messages = append(c.Messages, msg)
	last := msg
	c.LastMessage = &last
	return true
}

// Normalize re-establishes the lastMessage invariant from the message list.
func (c *Chat) Normalize() {
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if len(c.Messages) == 0 {
		c.LastMessage = nil
		return
	}
	last := c.Messages[len(c.Messages)-1]
	c.LastMessage = &last
}

// UnreadCount returns the number of remote-authored messages not yet read.
func (c Chat) UnreadCount() int {
	n := 0
	for i := range c.Messages {
		if c.Messages[i].Unread() {
			n++
		}
	}
	return n
}

// Epoch is the activity time of a chat without messages.
var Epoch = time.Unix(0, 0).UTC()

// LastActivity is the timestamp of the last message, or Epoch for a chat
// without messages.
func (c Chat) LastActivity() time.Time {
	if c.LastMessage == nil {
		return Epoch
	}
	return c.LastMessage.Timestamp
}

// Clone returns a deep copy of the chat that shares no memory with c.
func (c Chat) Clone() Chat {
	out := Chat{
		ID:           c.ID,
		Participants: append([]string(nil), c.Participants...),
		Messages:     make([]Message, len(c.Messages)),
	}
	copy(out.Messages, c.Messages)
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
	}
	return out
}

// CloneChats deep-copies a chat collection.
func CloneChats(chats []Chat) []Chat {
	out := make([]Chat, len(chats))
	for i := range chats {
		out[i] = chats[i].Clone()
	}
	return out
}
