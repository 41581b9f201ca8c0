package app

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/mochachat/internal/chatstore"
	"github.com/nfrund/mochachat/internal/config"
	"github.com/nfrund/mochachat/internal/directory"
	"github.com/nfrund/mochachat/internal/domain"
	"github.com/nfrund/mochachat/internal/persistence"
	"github.com/nfrund/mochachat/internal/reply"
	"github.com/nfrund/mochachat/internal/typing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// fixedSeeder gives every participant an empty chat, except "1" which holds
// one unread message.
type fixedSeeder struct {
	dir *directory.Directory
}

func (f fixedSeeder) Chats() []domain.Chat {
	var chats []domain.Chat
	for _, id := range f.dir.IDs() {
		c := domain.NewChat(id)
		if id == "1" {
			c.Append(domain.Message{
				ID: "seed-1", SenderID: "1", ReceiverID: domain.LocalUserID,
				Text: "hello", Timestamp: base, Status: domain.StatusSent,
			})
		}
		chats = append(chats, c)
	}
	return chats
}

// scheduler holds reply callbacks until the test fires them.
type scheduler struct {
	mu    sync.Mutex
	funcs []func()
}

type stoppable struct{}

func (stoppable) Stop() bool { return true }

func (s *scheduler) after(_ time.Duration, f func()) reply.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, f)
	return stoppable{}
}

func (s *scheduler) fireAll() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type harness struct {
	session *Session
	sched   *scheduler
	fs      afero.Fs
}

func newHarness(t *testing.T, probability float64, fs afero.Fs) *harness {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	kv, err := persistence.NewAferoKV(fs, "/data")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Storage = persistence.BackendMemory
	cfg.Reply.Probability = probability
	cfg.Typing.Debounce = 10 * time.Millisecond

	dir := directory.Default()
	sched := &scheduler{}
	n := 0
	s, err := NewSession(context.Background(), cfg,
		WithKV(kv),
		WithDirectory(dir),
		WithSeeder(fixedSeeder{dir: dir}),
		WithClock(func() time.Time { return base.Add(time.Hour) }),
		WithIDSource(func() string { n++; return "local-" + string(rune('a'+n-1)) }),
		WithReplyOptions(
			reply.WithAfterFunc(sched.after),
			reply.WithRand(rand.New(rand.NewPCG(7, 7))),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &harness{session: s, sched: sched, fs: fs}
}

func TestSession_Send(t *testing.T) {
	h := newHarness(t, 1, nil)
	ctx := context.Background()

	msg, err := h.session.Send(ctx, "2", "  hi Bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hi Bob", msg.Text)
	assert.Equal(t, domain.LocalUserID, msg.SenderID)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.False(t, msg.IsRead)

	c, err := h.session.Chat("2")
	require.NoError(t, err)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, msg.ID, c.LastMessage.ID)
	assert.Equal(t, 1, h.session.PendingReplies())

	h.sched.fireAll()
	c, _ = h.session.Chat("2")
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "2", c.Messages[1].SenderID)
	assert.True(t, c.Messages[1].IsRead)
	assert.Equal(t, 0, h.session.PendingReplies())
}

func TestSession_SendErrors(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()

	_, err := h.session.Send(ctx, "2", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = h.session.Send(ctx, "nobody", "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.session.SendAttachment(ctx, "2", "hologram")
	assert.ErrorIs(t, err, ErrUnknownAttachment)

	msg, err := h.session.SendAttachment(ctx, "2", "image")
	require.NoError(t, err)
	assert.Equal(t, "📷 [Image attachment]", msg.Text)
	assert.Equal(t, 0, h.session.PendingReplies())
}

func TestSession_MarkRead(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()

	assert.Equal(t, 1, h.session.Store().TotalUnread())

	changed, err := h.session.MarkRead(ctx, "1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, h.session.Store().TotalUnread())

	changed, err = h.session.MarkRead(ctx, "1")
	require.NoError(t, err)
	assert.False(t, changed, "second call has nothing to mark")

	_, err = h.session.MarkRead(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_Subscribe(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []chatstore.StateChanged
	require.NoError(t, h.session.Subscribe(ctx, func(ev chatstore.StateChanged) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	_, err := h.session.Send(ctx, "3", "ping")
	require.NoError(t, err)
	assert.True(t, h.session.ToggleDisplayMode(ctx))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// Delivery is asynchronous; versions give the commit order.
	sort.Slice(events, func(i, j int) bool { return events[i].Version < events[j].Version })
	assert.Equal(t, chatstore.ReasonMessageAdded, events[0].Reason)
	assert.Equal(t, domain.ChatIDFor("3"), events[0].ChatID)
	assert.Equal(t, chatstore.ReasonDisplayModeToggled, events[1].Reason)
	assert.True(t, events[1].Snapshot.DarkMode)
	assert.Greater(t, events[1].Version, events[0].Version)
}

func TestSession_ComposerDrivesTyping(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan typing.Event, 8)
	require.NoError(t, h.session.SubscribeTyping(ctx, "2", func(ev typing.Event) { updates <- ev }))

	composer := h.session.Composer("2")
	composer.Update("h")
	composer.Update("he")

	assert.Eventually(t, func() bool { return h.session.Tracker().IsTyping("2") }, time.Second, 5*time.Millisecond)
	composer.Close()
	assert.False(t, h.session.Tracker().IsTyping("2"))

	first, second := <-updates, <-updates
	if first.Seq > second.Seq {
		first, second = second, first
	}
	assert.True(t, first.IsTyping)
	assert.False(t, second.IsTyping)
}

func TestSession_UpdateProfile(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()

	err := h.session.UpdateProfile(ctx, domain.User{DisplayName: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)

	err = h.session.UpdateProfile(ctx, domain.User{ID: "2", DisplayName: "Impostor"})
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)

	require.NoError(t, h.session.UpdateProfile(ctx, domain.User{DisplayName: "Me", StatusText: "Busy"}))
	user := h.session.Store().CurrentUser()
	assert.Equal(t, domain.LocalUserID, user.ID)
	assert.Equal(t, "Me", user.DisplayName)
}

func TestSession_ReplyAfterReset(t *testing.T) {
	h := newHarness(t, 1, nil)
	ctx := context.Background()

	sent, err := h.session.Send(ctx, "2", "before reset")
	require.NoError(t, err)

	h.session.ResetHistory(ctx)
	h.sched.fireAll()

	c, err := h.session.Chat("2")
	require.NoError(t, err)
	require.Len(t, c.Messages, 1, "only the late reply lands in the fresh chat")
	assert.False(t, c.ContainsID(sent.ID))
	assert.Equal(t, "2", c.Messages[0].SenderID)
}

func TestSession_StateSurvivesRestart(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	first := newHarness(t, 0, fs)
	_, err := first.session.Send(ctx, "4", "remember me")
	require.NoError(t, err)
	first.session.ToggleDisplayMode(ctx)
	require.NoError(t, first.session.Close())
	require.NoError(t, first.session.Close(), "close is idempotent")

	second := newHarness(t, 0, fs)
	c, err := second.session.Chat("4")
	require.NoError(t, err)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "remember me", c.Messages[0].Text)
	assert.True(t, second.session.Store().DarkMode())
}

func TestSession_ChatsSortedAndFiltered(t *testing.T) {
	h := newHarness(t, 0, nil)
	ctx := context.Background()

	_, err := h.session.Send(ctx, "3", "latest")
	require.NoError(t, err)

	chats := h.session.Chats("")
	require.NotEmpty(t, chats)
	assert.Equal(t, domain.ChatIDFor("3"), chats[0].ID)
	assert.Equal(t, domain.ChatIDFor("1"), chats[1].ID)

	alice, ok := h.session.Store().UserByID("1")
	require.True(t, ok)
	filtered := h.session.Chats(alice.DisplayName[:3])
	require.NotEmpty(t, filtered)
	for _, c := range filtered {
		assert.NotEqual(t, domain.ChatIDFor("3"), c.ID)
	}
}

// slowPicker blocks inside Pick so a reply is mid-delivery when the test
// closes the session.
type slowPicker struct {
	entered chan struct{}
	once    sync.Once
	delay   time.Duration
}

func (p *slowPicker) Pick(reply.Request) (string, error) {
	p.once.Do(func() { close(p.entered) })
	time.Sleep(p.delay)
	return "late reply", nil
}

func TestSession_CloseWaitsForReplyInFlight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.pebble")
	kv, err := persistence.OpenPebbleKV(path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Storage = persistence.BackendPebble
	cfg.Reply.Probability = 1
	cfg.Reply.MinDelay = time.Millisecond
	cfg.Reply.MaxDelay = time.Millisecond

	picker := &slowPicker{entered: make(chan struct{}), delay: 200 * time.Millisecond}
	dir := directory.Default()
	s, err := NewSession(context.Background(), cfg,
		WithKV(kv),
		WithDirectory(dir),
		WithSeeder(fixedSeeder{dir: dir}),
		WithReplyOptions(reply.WithPicker(picker)),
	)
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "1", "hi")
	require.NoError(t, err)

	select {
	case <-picker.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("reply was never picked")
	}
	require.NotPanics(t, func() { require.NoError(t, s.Close()) })

	reopened, err := persistence.OpenPebbleKV(path)
	require.NoError(t, err)
	gw := persistence.NewGateway(reopened)
	t.Cleanup(func() { _ = gw.Close() })
	snap, err := gw.Load(context.Background(), persistence.Snapshot{})
	require.NoError(t, err)

	var texts []string
	for _, c := range snap.Chats {
		if c.ID == domain.ChatIDFor("1") {
			for _, m := range c.Messages {
				texts = append(texts, m.Text)
			}
		}
	}
	assert.Contains(t, texts, "hi")
	assert.Contains(t, texts, "late reply", "the in-flight reply lands before storage closes")
}
