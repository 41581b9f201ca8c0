package topicmgr

import (
	"fmt"
	"strings"
	"sync"
)

// Manager validates topic definitions and keeps them in a Registry.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// DefineEngine creates a topic owned by the chat engine.
func DefineEngine(config TopicConfig) Topic {
	config.Scope = ScopeEngine
	config.Module = ""
	return newTypedTopic(config)
}

// DefineModule creates a topic owned by an optional component.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return newTypedTopic(config)
}

func newTypedTopic(config TopicConfig) *TypedTopic {
	if config.Pattern == "" {
		config.Pattern = config.Name
	}
	return &TypedTopic{
		name:        config.Name,
		module:      config.Module,
		description: config.Description,
		pattern:     config.Pattern,
		example:     config.Example,
		metadata:    config.Metadata,
		scope:       config.Scope,
	}
}

// Register validates a topic and adds it to the registry.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		t := &TopicError{
			Type:    ErrorValidationFailed,
			Message: "topic validation failed",
			Cause:   err,
		}
		if topic != nil {
			t.Topic, t.Module = topic.Name(), topic.Module()
		}
		return t
	}
	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Lookup retrieves a topic by name, reporting a TopicError when absent.
func (m *Manager) Lookup(name string) (Topic, error) {
	topic, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   name,
			Message: fmt.Sprintf("topic not found: %s", name),
		}
	}
	return topic, nil
}

// List returns all registered topics
func (m *Manager) List() []Topic {
	return m.registry.List()
}

// ListByScope returns topics for a specific scope
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.registry.InScope(scope)
}

// FindTopics returns topics whose name matches pattern. A trailing '*'
// matches any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	var matches []Topic
	for _, t := range m.registry.List() {
		if matchesPattern(t.Name(), pattern) {
			matches = append(matches, t)
		}
	}
	return matches
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Reset removes all registered topics (primarily for testing)
func (m *Manager) Reset() {
	m.registry.Reset()
}

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager typed events register with.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
