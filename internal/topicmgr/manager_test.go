package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterAndLookup(t *testing.T) {
	m := NewManager()

	state := DefineEngine(TopicConfig{
		Name:        "chat.state.changed",
		Description: "store mutation",
	})
	typing := DefineEngine(TopicConfig{
		Name:        "chat.typing",
		Pattern:     "chat.typing.{userID}",
		Description: "typing indicator",
	})
	require.NoError(t, m.Register(state))
	require.NoError(t, m.Register(typing))

	got, ok := m.Get("chat.typing")
	require.True(t, ok)
	assert.Equal(t, "chat.typing.{userID}", got.Pattern())
	assert.True(t, got.(*TypedTopic).Scoped())
	assert.Equal(t, "chat.state.changed", state.Pattern(), "pattern defaults to the name")

	names := []string{}
	for _, tp := range m.List() {
		names = append(names, tp.Name())
	}
	assert.Equal(t, []string{"chat.state.changed", "chat.typing"}, names)
	assert.Len(t, m.FindTopics("chat.t*"), 1)
	assert.Len(t, m.FindTopics("*"), 2)
}

func TestManager_RejectsDuplicates(t *testing.T) {
	m := NewManager()
	topic := DefineEngine(TopicConfig{Name: "chat.state.changed", Description: "x"})
	require.NoError(t, m.Register(topic))

	err := m.Register(topic)
	var te *TopicError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorDuplicateRegistration, te.Type)
}

func TestManager_Validation(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name  string
		topic Topic
	}{
		{"engine topic outside engine namespace", DefineEngine(TopicConfig{Name: "presence.user", Description: "x"})},
		{"missing description", DefineEngine(TopicConfig{Name: "chat.thing"})},
		{"upper case name", DefineEngine(TopicConfig{Name: "Chat.Thing", Description: "x"})},
		{"pattern not extending name", DefineEngine(TopicConfig{Name: "chat.typing", Pattern: "chat.other.{id}", Description: "x"})},
		{"module topic without module", DefineModule(TopicConfig{Name: "script.reloaded", Description: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Register(tt.topic)
			var te *TopicError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, ErrorValidationFailed, te.Type)
		})
	}

	require.NoError(t, m.Register(DefineModule(TopicConfig{
		Name:        "script.reloaded",
		Module:      "script",
		Description: "reply script reloaded",
	})))
	assert.Len(t, m.ListByScope(ScopeModule), 1)
	assert.Empty(t, m.ListByScope(ScopeEngine))
}

func TestManager_LookupMissing(t *testing.T) {
	_, err := NewManager().Lookup("chat.nothing")
	var te *TopicError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTopicNotFound, te.Type)
}

func TestRegistry_InScopeIsSortedByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DefineEngine(TopicConfig{Name: "chat.typing", Description: "x"})))
	require.NoError(t, r.Register(DefineEngine(TopicConfig{Name: "chat.state.changed", Description: "x"})))
	require.NoError(t, r.Register(DefineModule(TopicConfig{Name: "script.reloaded", Module: "script", Description: "x"})))

	var names []string
	for _, tp := range r.InScope(ScopeEngine) {
		names = append(names, tp.Name())
	}
	assert.Equal(t, []string{"chat.state.changed", "chat.typing"}, names)
	assert.Len(t, r.InScope(ScopeModule), 1)

	err := r.Register(DefineEngine(TopicConfig{Name: "chat.typing", Description: "again"}))
	assert.ErrorContains(t, err, "#1")

	r.Reset()
	assert.Zero(t, r.Count())
	assert.Empty(t, r.InScope(ScopeEngine))
}
