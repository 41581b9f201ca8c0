package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nfrund/mochachat/internal/pubsub"
	"github.com/nfrund/mochachat/internal/reply"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(id string) string {
	if id == "5" {
		return "Tech Team"
	}
	return "Alice Johnson"
}

func newMemScript(t *testing.T, src string) (*ReplyScript, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scripts/reply.tengo", []byte(src), 0o644))
	rs, err := NewReplyScript(fs, "/scripts/reply.tengo", NewEngine(DefaultSecurityLimits()), names, []string{"ok", "sure"})
	require.NoError(t, err)
	return rs, fs
}

func TestReplyScript_Pick(t *testing.T) {
	rs, _ := newMemScript(t, `
text := import("text")
reply = text.contains(remote_name, "Tech") ? "[Bot] build is green" : replies[1] + " " + chat_id
`)

	got, err := rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "sure c1", got)

	got, err = rs.Pick(reply.Request{ChatID: "c5", RemoteUserID: "5"})
	require.NoError(t, err)
	assert.Equal(t, "[Bot] build is green", got)
}

func TestReplyScript_Errors(t *testing.T) {
	t.Run("compilation error", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`reply = (`), 0o644))
		_, err := NewReplyScript(fs, "/r.tengo", NewEngine(DefaultSecurityLimits()), names, nil)

		var se *ScriptError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ErrorTypeCompilation, se.Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewReplyScript(afero.NewMemMapFs(), "/nope.tengo", NewEngine(DefaultSecurityLimits()), names, nil)

		var se *ScriptError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ErrorTypeNotFound, se.Type)
	})

	t.Run("no reply assigned", func(t *testing.T) {
		rs, _ := newMemScript(t, `x := 1`)
		_, err := rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})

		var se *ScriptError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ErrorTypeResult, se.Type)
	})

	t.Run("timeout", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`for { }`), 0o644))
		limits := DefaultSecurityLimits()
		limits.MaxExecutionTime = 20 * time.Millisecond
		rs, err := NewReplyScript(fs, "/r.tengo", NewEngine(limits), names, nil)
		require.NoError(t, err)

		_, err = rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
		var se *ScriptError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ErrorTypeTimeout, se.Type)
	})

	t.Run("disallowed module", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/r.tengo", []byte(`os := import("os")
reply = "x"`), 0o644))
		_, err := NewReplyScript(fs, "/r.tengo", NewEngine(DefaultSecurityLimits()), names, nil)
		assert.Error(t, err)
	})
}

func TestReplyScript_ReloadKeepsPreviousOnFailure(t *testing.T) {
	rs, fs := newMemScript(t, `reply = "first"`)

	require.NoError(t, afero.WriteFile(fs, "/scripts/reply.tengo", []byte(`reply = "second"`), 0o644))
	require.NoError(t, rs.Reload())
	got, err := rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, afero.WriteFile(fs, "/scripts/reply.tengo", []byte(`reply = (`), 0o644))
	assert.Error(t, rs.Reload())
	got, err = rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestReplyScript_ConcurrentPicks(t *testing.T) {
	rs, _ := newMemScript(t, `reply = remote_name`)

	done := make(chan string, 20)
	for i := 0; i < 20; i++ {
		go func() {
			got, _ := rs.Pick(reply.Request{ChatID: "c", RemoteUserID: "5"})
			done <- got
		}()
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "Tech Team", <-done)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`reply = "before"`), 0o644))

	rs, err := NewReplyScript(afero.NewOsFs(), path, NewEngine(DefaultSecurityLimits()), names, nil)
	require.NoError(t, err)

	reloaded := make(chan error, 8)
	w, err := NewWatcher(rs, func(err error) { reloaded <- err })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`reply = "after"`), 0o644))

	assert.Eventually(t, func() bool {
		got, err := rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
		return err == nil && got == "after"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_RemovalKeepsLastVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reply.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`reply = "kept"`), 0o644))

	rs, err := NewReplyScript(afero.NewOsFs(), path, NewEngine(DefaultSecurityLimits()), names, nil)
	require.NoError(t, err)
	w, err := NewWatcher(rs, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	require.NoError(t, os.Remove(path))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-w.Done()

	got, err := rs.Pick(reply.Request{ChatID: "c1", RemoteUserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}

func TestReloadAnnouncer(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Reloaded, 2)
	require.NoError(t, pubsub.Subscribe(ctx, bus, TopicReloaded.Name(), func(_ context.Context, ev Reloaded) error {
		got <- ev
		return nil
	}))

	ReloadAnnouncer(bus, "/scripts/reply.tengo")(errors.New("boom"))

	select {
	case ev := <-got:
		assert.Equal(t, "/scripts/reply.tengo", ev.Path)
		assert.False(t, ev.OK)
		assert.Equal(t, "boom", ev.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("reload event not delivered")
	}
	assert.Equal(t, "module", string(TopicReloaded.Topic().Scope()))
}
