// Package view turns chat state into display-ready rows and labels.
package view

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	labelToday     = "Today"
	labelYesterday = "Yesterday"
)

// sameDay compares calendar days in the location of b.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isYesterday(t, now time.Time) bool {
	return sameDay(t, now.AddDate(0, 0, -1))
}

// ListTimeLabel is the timestamp shown next to a chat in the chat list:
// the clock time for today, "Yesterday", or a short date.
func ListTimeLabel(t, now time.Time) string {
	switch {
	case t.IsZero():
		return ""
	case sameDay(t, now):
		return t.In(now.Location()).Format("3:04 PM")
	case isYesterday(t, now):
		return labelYesterday
	default:
		return t.In(now.Location()).Format("Jan 2")
	}
}

// DividerLabel is the heading of a day group inside a conversation.
func DividerLabel(t, now time.Time) string {
	switch {
	case sameDay(t, now):
		return labelToday
	case isYesterday(t, now):
		return labelYesterday
	default:
		return t.In(now.Location()).Format("January 2, 2006")
	}
}

// MessageTime is the clock time printed beside each message bubble.
func MessageTime(t, now time.Time) string {
	return t.In(now.Location()).Format("3:04 PM")
}

// Ago renders t relative to now, e.g. "3 minutes ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// UnreadBadge formats an unread counter; zero yields no badge.
func UnreadBadge(n int) string {
	if n <= 0 {
		return ""
	}
	if n > 99 {
		return "99+"
	}
	return humanize.Comma(int64(n))
}

// Count formats n with a pluralized noun, e.g. "1,204 messages".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return humanize.Comma(int64(n)) + " " + plural
}
