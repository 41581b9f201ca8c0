package chatstore

import (
	"sort"
	"strings"

	"github.com/nfrund/mochachat/internal/directory"
	"github.com/nfrund/mochachat/internal/domain"
	"golang.org/x/text/cases"
)

// SortedByRecency returns the chats ordered by last activity, newest first.
// Chats without messages rank at domain.Epoch; ties keep their input order. The input
// is not modified.
func SortedByRecency(chats []domain.Chat) []domain.Chat {
	out := make([]domain.Chat, len(chats))
	copy(out, chats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity().After(out[j].LastActivity())
	})
	return out
}

// FilterByName keeps the chats whose remote participant's display name
// contains term, compared case-insensitively. An empty term keeps all chats.
func FilterByName(chats []domain.Chat, dir *directory.Directory, term string) []domain.Chat {
	term = strings.TrimSpace(term)
	if term == "" {
		return chats
	}
	// A Caser keeps state and may not be shared between goroutines.
	folder := cases.Fold()
	needle := folder.String(term)

	out := make([]domain.Chat, 0, len(chats))
	for _, c := range chats {
		user, ok := dir.Lookup(c.RemoteParticipant())
		if !ok {
			continue
		}
		if strings.Contains(folder.String(user.DisplayName), needle) {
			out = append(out, c)
		}
	}
	return out
}
