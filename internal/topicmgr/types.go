package topicmgr

import "strings"

// Topic describes one channel on the event bus.
type Topic interface {
	// Name returns the unique string identifier for this topic
	Name() string

	// Module returns the component that owns this topic (empty for engine topics)
	Module() string

	// Description returns human-readable documentation
	Description() string

	// Pattern returns the routing pattern, with {placeholders} for scoped topics
	Pattern() string

	// Example returns a payload example
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]any

	// Scope returns whether this is an engine or module topic
	Scope() TopicScope
}

// TypedTopic is the concrete Topic produced by DefineEngine and DefineModule.
type TypedTopic struct {
	name        string
	module      string
	description string
	pattern     string
	example     string
	metadata    map[string]any
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       TopicScope     `json:"scope"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata"`
}

// TopicScope defines whether a topic belongs to the engine core or to an optional module.
type TopicScope string

const (
	ScopeEngine TopicScope = "engine" // Store and typing notifications
	ScopeModule TopicScope = "module" // Optional components (scripted replies, metrics)
)

// RegistryEntry pairs a topic with its registration order.
type RegistryEntry struct {
	Topic Topic
	Seq   uint64
}

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorInvalidScope          ErrorType = "invalid_scope"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Name returns the topic's unique identifier
func (t *TypedTopic) Name() string {
	return t.name
}

// Module returns the module that owns this topic
func (t *TypedTopic) Module() string {
	return t.module
}

// Description returns human-readable documentation
func (t *TypedTopic) Description() string {
	return t.description
}

// Pattern returns the routing pattern
func (t *TypedTopic) Pattern() string {
	return t.pattern
}

// Example returns a payload example
func (t *TypedTopic) Example() string {
	return t.example
}

// Metadata returns a copy of the additional topic information
func (t *TypedTopic) Metadata() map[string]any {
	result := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

// Scope returns whether this is an engine or module topic
func (t *TypedTopic) Scope() TopicScope {
	return t.scope
}

// Scoped reports whether the pattern carries a {placeholder} segment.
func (t *TypedTopic) Scoped() bool {
	return strings.Contains(t.pattern, "{")
}

// String returns the topic name for easy debugging
func (t *TypedTopic) String() string {
	return t.name
}
