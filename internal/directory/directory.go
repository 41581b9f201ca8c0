// Package directory is the static registry of chat participants.
//
// The directory is built once at start-up and never mutated. The local user
// record it carries is only the bootstrap default; the live profile is owned
// by the chat store.
package directory

import (
	"github.com/nfrund/mochachat/internal/domain"
)

// Directory is an immutable, ordered set of remote participants plus the
// reserved local-user record.
type Directory struct {
	participants []domain.User
	index        map[string]int
	local        domain.User
}

// New builds a directory. Entries using the reserved local id and duplicate
// ids are ignored; the first occurrence wins.
func New(participants []domain.User, local domain.User) *Directory {
	d := &Directory{
		participants: make([]domain.User, 0, len(participants)),
		index:        make(map[string]int, len(participants)),
		local:        local,
	}
	d.local.ID = domain.LocalUserID

	for _, p := range participants {
		if p.ID == "" || p.ID == domain.LocalUserID {
			continue
		}
		if _, dup := d.index[p.ID]; dup {
			continue
		}
		d.index[p.ID] = len(d.participants)
		d.participants = append(d.participants, p)
	}
	return d
}

// Default returns the directory seeded with the built-in participants.
func Default() *Directory {
	return New(DefaultParticipants(), DefaultLocalUser())
}

// Lookup resolves userID. The reserved local id always resolves to the local
// record regardless of directory contents.
func (d *Directory) Lookup(userID string) (domain.User, bool) {
	if userID == domain.LocalUserID {
		return d.local, true
	}
	i, ok := d.index[userID]
	if !ok {
		return domain.User{}, false
	}
	return d.participants[i], true
}

// Contains reports whether userID is a known remote participant.
func (d *Directory) Contains(userID string) bool {
	_, ok := d.index[userID]
	return ok
}

// All returns the remote participants in directory order.
func (d *Directory) All() []domain.User {
	out := make([]domain.User, len(d.participants))
	copy(out, d.participants)
	return out
}

// IDs returns the remote participant ids in directory order.
func (d *Directory) IDs() []string {
	out := make([]string, len(d.participants))
	for i, p := range d.participants {
		out[i] = p.ID
	}
	return out
}

// Local returns the bootstrap local-user record.
func (d *Directory) Local() domain.User {
	return d.local
}

// Len is the number of remote participants.
func (d *Directory) Len() int {
	return len(d.participants)
}
