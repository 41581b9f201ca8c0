package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nfrund/mochachat/internal/app"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/view"
)

// printChatList writes the chat list as a table.
func printChatList(out io.Writer, rows []view.ChatRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tLAST MESSAGE\tTIME\tUNREAD")
	for _, r := range rows {
		name := r.Name
		if r.Online {
			name += " •"
		}
		preview := truncate(r.Preview, 40)
		if r.OwnTicks != "" {
			preview = r.OwnTicks + " " + preview
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.UserID, name, preview, r.Time, r.Unread)
	}
}

// printConversation writes a chat grouped by day.
func printConversation(out io.Writer, s *app.Session, c domain.Chat, now time.Time) {
	remote, _ := s.Store().UserByID(c.RemoteParticipant())
	fmt.Fprintf(out, "%s (%s)\n", remote.DisplayName, view.PresenceLine(remote, s.Tracker().IsTyping(remote.ID)))

	if len(c.Messages) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return
	}
	for _, g := range view.GroupByDay(c.Messages, now) {
		fmt.Fprintf(out, "\n── %s ──\n", g.Label)
		for _, m := range g.Messages {
			printMessage(out, s, m, now)
		}
	}
}

// printMessage writes one message line.
func printMessage(out io.Writer, s *app.Session, m domain.Message, now time.Time) {
	author := "You"
	if !m.FromLocalUser() {
		if u, ok := s.Store().UserByID(m.SenderID); ok {
			author = u.DisplayName
		} else {
			author = m.SenderID
		}
	}
	line := fmt.Sprintf("[%s] %s: %s", view.MessageTime(m.Timestamp, now), author, m.Text)
	if m.FromLocalUser() {
		line += "  " + view.Ticks(m.Status)
	}
	fmt.Fprintln(out, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func onOff(b bool) string {
	if b {
		return "dark"
	}
	return "light"
}
