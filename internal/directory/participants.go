package directory

import "github.com/nfrund/mochachat/internal/domain"

// GroupParticipantID is the directory entry that represents a group chat.
// Its inbound messages are attributed to one of GroupMembers.
const GroupParticipantID = "5"

// GroupMembers are the display names used to attribute group messages.
var GroupMembers = []string{"Alice", "Bob", "Charlie", "Diana"}

// DefaultParticipants is the built-in participant seed.
func DefaultParticipants() []domain.User {
	return []domain.User{
		{ID: "1", DisplayName: "Alice Johnson", AvatarRef: "https://i.pravatar.cc/150?img=1", StatusText: "Living the dream ✨", Online: true, LastSeenLabel: "now"},
		{ID: "2", DisplayName: "Bob Smith", AvatarRef: "https://i.pravatar.cc/150?img=2", StatusText: "At the gym 💪", Online: false, LastSeenLabel: "10 minutes ago"},
		{ID: "3", DisplayName: "Charlie Davis", AvatarRef: "https://i.pravatar.cc/150?img=3", StatusText: "Working remotely 💻", Online: true, LastSeenLabel: "now"},
		{ID: "4", DisplayName: "Diana Miller", AvatarRef: "https://i.pravatar.cc/150?img=4", StatusText: "On vacation 🏝️", Online: false, LastSeenLabel: "2 hours ago"},
		{ID: GroupParticipantID, DisplayName: "Tech Friends", AvatarRef: "https://i.pravatar.cc/150?img=5", StatusText: "Group chat for tech enthusiasts", Online: true, LastSeenLabel: "now"},
		{ID: "6", DisplayName: "Emma Wilson", AvatarRef: "https://i.pravatar.cc/150?img=6", StatusText: "Busy with work 🚫", Online: false, LastSeenLabel: "3 days ago"},
		{ID: "7", DisplayName: "Frank Anderson", AvatarRef: "https://i.pravatar.cc/150?img=7", StatusText: "Available for coffee ☕", Online: true, LastSeenLabel: "now"},
	}
}

// DefaultLocalUser is the local user's record before any profile update.
func DefaultLocalUser() domain.User {
	return domain.User{
		ID:            domain.LocalUserID,
		DisplayName:   "You",
		AvatarRef:     "https://i.pravatar.cc/150?img=8",
		StatusText:    "Available",
		Online:        true,
		LastSeenLabel: "now",
	}
}
