package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/mochachat/internal/topicmgr"
)

// Event[T] wraps a topic name and provides type-safe publishing.
type Event[T any] struct {
	topicName string
	topic     topicmgr.Topic
}

// NewEvent creates a typed engine event and registers it with the default
// topic manager. The payload fields of T are recorded in the topic metadata.
// A pattern of "" means the event is published on its name only.
func NewEvent[T any](name, pattern, description string) Event[T] {
	topic := topicmgr.DefineEngine(topicmgr.TopicConfig{
		Name:        name,
		Pattern:     pattern,
		Description: description,
		Metadata:    payloadMetadata[T](),
	})

	// Events are package-level values; a bad definition should stop startup.
	topicmgr.Default().MustRegister(topic)

	return Event[T]{topicName: name, topic: topic}
}

// NewModuleEvent is NewEvent for a topic owned by an optional component.
func NewModuleEvent[T any](module, name, pattern, description string) Event[T] {
	topic := topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Pattern:     pattern,
		Description: description,
		Metadata:    payloadMetadata[T](),
	})
	topicmgr.Default().MustRegister(topic)

	return Event[T]{topicName: name, topic: topic}
}

func payloadMetadata[T any]() map[string]any {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fields = append(fields, name)
		}
	}

	return map[string]any{
		"payload_fields": fields,
		"type_name":      t.Name(),
		"is_typed":       true,
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Topic returns the registered definition.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Scoped returns the concrete topic for one scope value, e.g. a user id.
func (e Event[T]) Scoped(scope string) string {
	return e.topicName + "." + scope
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	return publish(ctx, p, event.Name(), "", payload, nil)
}

// PublishScoped sends a typed event on the scoped topic for userID.
func PublishScoped[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T, metadata map[string]string) error {
	return publish(ctx, p, event.Scoped(userID), userID, payload, metadata)
}

func publish(ctx context.Context, p Publisher, topic, userID string, payload any, metadata map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return p.Publish(ctx, Message{
		Topic:    topic,
		UserID:   userID,
		Payload:  data,
		Metadata: metadata,
	})
}

// Subscribe decodes every message on topic into T before calling handler.
// Messages that fail to decode are reported to the bus as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, topic string, handler func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, topic, func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.Topic, err)
		}
		return handler(ctx, payload)
	})
}
