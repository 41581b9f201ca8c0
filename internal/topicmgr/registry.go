package topicmgr

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds registered topics indexed by name and by scope.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]RegistryEntry
	byScope map[TopicScope][]string
	seq     uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Register stores topic under its name. Names are unique across scopes.
func (r *Registry) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{Type: ErrorValidationFailed, Message: "cannot register nil topic"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if prev, dup := r.byName[name]; dup {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic %s already registered as #%d", name, prev.Seq),
		}
	}

	r.seq++
	r.byName[name] = RegistryEntry{Topic: topic, Seq: r.seq}
	r.byScope[topic.Scope()] = insertSorted(r.byScope[topic.Scope()], name)
	return nil
}

func insertSorted(names []string, name string) []string {
	i, _ := slices.BinarySearch(names, name)
	return slices.Insert(names, i, name)
}

// Get returns the topic registered under name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	return e.Topic, ok
}

// List returns every topic ordered by name.
func (r *Registry) List() []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.byName))
	for _, e := range r.byName {
		topics = append(topics, e.Topic)
	}
	slices.SortFunc(topics, func(a, b Topic) int { return strings.Compare(a.Name(), b.Name()) })
	return topics
}

// InScope returns the topics of one scope ordered by name.
func (r *Registry) InScope(scope TopicScope) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byScope[scope]
	topics := make([]Topic, len(names))
	for i, n := range names {
		topics[i] = r.byName[n].Topic
	}
	return topics
}

// Count returns the number of registered topics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Reset drops every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]RegistryEntry)
	r.byScope = make(map[TopicScope][]string)
	r.seq = 0
}
