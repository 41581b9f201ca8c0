package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dataDir, "--storage", "file"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func quietReplies(t *testing.T) {
	t.Setenv("MOCHA_REPLY_PROBABILITY", "0")
	t.Setenv("LOG_LEVEL", "error")
}

func TestChatsCommand(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	out, err := run(t, dir, "", "chats")
	require.NoError(t, err)
	assert.Contains(t, out, "LAST MESSAGE")
	assert.Contains(t, out, "Alice Johnson")

	out, err = run(t, dir, "", "chats", "--search", "TECH")
	require.NoError(t, err)
	assert.Contains(t, out, "Tech Friends")
	assert.NotContains(t, out, "Alice Johnson")

	out, err = run(t, dir, "", "chats", "--search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, `No chats matching "zzz"`)
}

func TestSendThenShow(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	out, err := run(t, dir, "", "send", "2", "see", "you", "at", "noon")
	require.NoError(t, err)
	assert.Contains(t, out, "You: see you at noon")

	out, err = run(t, dir, "", "show", "2", "--peek")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob Smith")
	assert.Contains(t, out, "Today")
	assert.Contains(t, out, "see you at noon")

	_, err = run(t, dir, "", "send", "nobody", "hi")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, dir, "", "send", "2", "   ")
	assert.Error(t, err)
}

func TestSendWaitsForReply(t *testing.T) {
	t.Setenv("MOCHA_REPLY_PROBABILITY", "1")
	t.Setenv("MOCHA_REPLY_MIN_DELAY", "10ms")
	t.Setenv("MOCHA_REPLY_MAX_DELAY", "20ms")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, t.TempDir(), "", "send", "3", "ping", "--wait", "2s")
	require.NoError(t, err)
	assert.Contains(t, out, "You: ping")
	assert.Contains(t, out, "Charlie Davis:")
}

func TestAttachCommand(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	out, err := run(t, dir, "", "attach", "4", "document")
	require.NoError(t, err)
	assert.Contains(t, out, "📄 [Document attachment]")

	_, err = run(t, dir, "", "attach", "4", "hologram")
	assert.Error(t, err)
}

func TestReadCommand(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	_, err := run(t, dir, "", "read", "1")
	require.NoError(t, err)

	out, err := run(t, dir, "", "read", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to mark.")
}

func TestThemeAndProfile(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	out, err := run(t, dir, "", "theme", "show")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, dir, "", "theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, dir, "", "theme", "show")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = run(t, dir, "", "profile", "set", "--name", "Sam", "--status", "Out for lunch")
	require.NoError(t, err)
	out, err = run(t, dir, "", "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:   Sam")
	assert.Contains(t, out, "Status: Out for lunch")

	_, err = run(t, dir, "", "profile", "set", "--name", "")
	assert.Error(t, err)
}

func TestResetRequiresConfirmation(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	_, err := run(t, dir, "", "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, dir, "", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat history reset.")
}

func TestChatCommand(t *testing.T) {
	quietReplies(t)
	dir := t.TempDir()

	out, err := run(t, dir, "hello from the terminal\n\n/attach video\n/quit\nignored\n", "chat", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Emma Wilson")
	assert.Contains(t, out, "/quit to leave")

	out, err = run(t, dir, "", "show", "6", "--peek")
	require.NoError(t, err)
	assert.Contains(t, out, "hello from the terminal")
	assert.Contains(t, out, "🎥 [Video attachment]")
	assert.NotContains(t, out, "ignored")
}

func TestTopicsCommand(t *testing.T) {
	quietReplies(t)

	out, err := run(t, t.TempDir(), "", "topics", "--format", "json")
	require.NoError(t, err)

	var listing struct {
		Topics []topicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	names := make([]string, 0, listing.Count)
	for _, tp := range listing.Topics {
		names = append(names, tp.Name)
	}
	assert.Contains(t, names, "chat.state.changed")
	assert.Contains(t, names, "chat.typing")
	assert.Contains(t, names, "script.reloaded")

	out, err = run(t, t.TempDir(), "", "topics", "--scope", "module")
	require.NoError(t, err)
	assert.Contains(t, out, "script.reloaded")
	assert.NotContains(t, out, "chat.state.changed")

	_, err = run(t, t.TempDir(), "", "topics", "--scope", "framework")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "mochachat v"+version+"\n", out)
}
