package domain

import "time"

// DeliveryStatus is the lifecycle of an outbound message: sent → delivered → read.
// Only the local user's own messages carry meaningful delivery ticks.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Valid reports whether s is one of the known delivery states.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// Message is a single entry of a chat.
//
// IsRead and Status are stored independently: remote-authored messages use
// IsRead to track whether the local user has seen them, local-authored
// messages use Status to track whether the remote party has.
type Message struct {
	ID         string         `json:"id"`
	SenderID   string         `json:"senderId"`
	ReceiverID string         `json:"receiverId"`
	Text       string         `json:"text"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     DeliveryStatus `json:"status"`
	IsRead     bool           `json:"isRead"`
}

// FromLocalUser reports whether the message was authored by the local user.
func (m Message) FromLocalUser() bool {
	return m.SenderID == LocalUserID
}

// Unread reports whether m is a remote-authored message the local user has
// not seen yet.
func (m Message) Unread() bool {
	return !m.FromLocalUser() && !m.IsRead
}
