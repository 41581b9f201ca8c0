// Package seed produces the bootstrap conversation content.
//
// The chat engine treats it as an opaque provider: the store only ever calls
// Generator.Chats, both at first start and when the history is reset.
package seed

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/mochachat/internal/directory"
	"github.com/nfrund/mochachat/internal/domain"
)

const (
	minSeedMessages = 5
	maxSeedMessages = 20 // exclusive

	// Seed messages older than this are considered already read.
	readAfter = time.Hour
)

// Generator builds one chat per directory participant filled with random
// history.
type Generator struct {
	dir *directory.Directory
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand makes the generator deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// WithClock sets the reference time message ages are computed from.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator for the participants of dir.
func NewGenerator(dir *directory.Directory, opts ...Option) *Generator {
	g := &Generator{
		dir: dir,
		now: time.Now,
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d6f636861)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Chats returns a fresh chat collection in directory order.
func (g *Generator) Chats() []domain.Chat {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	chats := make([]domain.Chat, 0, g.dir.Len())
	for _, id := range g.dir.IDs() {
		chat := domain.NewChat(id)
		chat.Messages = g.messages(id, now)
		chat.Normalize()
		chats = append(chats, chat)
	}
	return chats
}

func (g *Generator) messages(participantID string, now time.Time) []domain.Message {
	count := minSeedMessages + g.rng.IntN(maxSeedMessages-minSeedMessages)
	msgs := make([]domain.Message, 0, count)

	for i := 0; i < count; i++ {
		fromLocal := g.rng.Float64() > 0.5
		minutesAgo := count - i + g.rng.IntN(5)
		age := time.Duration(minutesAgo) * time.Minute

		msg := domain.Message{
			ID:        fmt.Sprintf("msg-%s-%d", participantID, i),
			Text:      g.text(fromLocal, participantID),
			Timestamp: now.Add(-age),
			Status:    statuses[g.rng.IntN(len(statuses))],
			IsRead:    age > readAfter,
		}
		if fromLocal {
			msg.SenderID, msg.ReceiverID = domain.LocalUserID, participantID
		} else {
			msg.SenderID, msg.ReceiverID = participantID, domain.LocalUserID
		}
		msgs = append(msgs, msg)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs
}

func (g *Generator) text(fromLocal bool, participantID string) string {
	if fromLocal {
		return localLines[g.rng.IntN(len(localLines))]
	}
	line := contactLines[g.rng.IntN(len(contactLines))]
	if participantID == directory.GroupParticipantID {
		member := directory.GroupMembers[g.rng.IntN(len(directory.GroupMembers))]
		return fmt.Sprintf("[%s] %s", member, line)
	}
	return line
}

var statuses = []domain.DeliveryStatus{domain.StatusSent, domain.StatusDelivered, domain.StatusRead}
