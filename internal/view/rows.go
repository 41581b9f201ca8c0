package view

import (
	"time"

	"github.com/nfrund/mochachat/internal/domain"
)

const typingPreview = "typing..."

// UserLookup resolves participant ids to directory records.
type UserLookup interface {
	UserByID(userID string) (domain.User, bool)
}

// ChatRow is one entry of the chat list.
type ChatRow struct {
	ChatID   string
	UserID   string
	Name     string
	Preview  string
	Time     string
	Unread   string
	Online   bool
	Typing   bool
	OwnTicks string
}

// ChatRows builds list rows in the order chats are given. typing reports
// whether a participant is currently composing.
func ChatRows(chats []domain.Chat, users UserLookup, typing func(userID string) bool, now time.Time) []ChatRow {
	rows := make([]ChatRow, 0, len(chats))
	for _, c := range chats {
		remote := c.RemoteParticipant()
		user, ok := users.UserByID(remote)
		if !ok {
			user = domain.User{ID: remote, DisplayName: remote}
		}

		row := ChatRow{
			ChatID: c.ID,
			UserID: remote,
			Name:   user.DisplayName,
			Online: user.Online,
			Unread: UnreadBadge(c.UnreadCount()),
		}
		if typing != nil && typing(remote) {
			row.Typing = true
			row.Preview = typingPreview
		}
		if c.LastMessage != nil {
			if !row.Typing {
				row.Preview = c.LastMessage.Text
			}
			row.Time = ListTimeLabel(c.LastMessage.Timestamp, now)
			if c.LastMessage.FromLocalUser() {
				row.OwnTicks = Ticks(c.LastMessage.Status)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Ticks renders the delivery state of a local message.
func Ticks(s domain.DeliveryStatus) string {
	switch s {
	case domain.StatusRead:
		return "✓✓ read"
	case domain.StatusDelivered:
		return "✓✓"
	default:
		return "✓"
	}
}

// DayGroup is a run of consecutive messages sent on the same calendar day.
type DayGroup struct {
	Label    string
	Messages []domain.Message
}

// GroupByDay splits msgs, assumed in chronological order, into day groups.
func GroupByDay(msgs []domain.Message, now time.Time) []DayGroup {
	var groups []DayGroup
	for _, m := range msgs {
		if n := len(groups); n > 0 {
			prev := groups[n-1].Messages
			if sameDay(prev[len(prev)-1].Timestamp, m.Timestamp.In(now.Location())) {
				groups[n-1].Messages = append(groups[n-1].Messages, m)
				continue
			}
		}
		groups = append(groups, DayGroup{
			Label:    DividerLabel(m.Timestamp, now),
			Messages: []domain.Message{m},
		})
	}
	return groups
}

// PresenceLine is the subtitle under a participant's name in a chat header.
func PresenceLine(u domain.User, typing bool) string {
	switch {
	case typing:
		return typingPreview
	case u.Online:
		return "online"
	case u.LastSeenLabel != "":
		return "last seen " + u.LastSeenLabel
	default:
		return u.StatusText
	}
}
