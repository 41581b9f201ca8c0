package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator provides validation for topic definitions
type Validator struct {
	namePattern    *regexp.Regexp
	patternPattern *regexp.Regexp
	modulePattern  *regexp.Regexp
}

// engineTopicPrefixes are the namespaces owned by the chat engine itself.
var engineTopicPrefixes = []string{"chat.", "session."}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	return &Validator{
		// Hierarchical dotted names: chat.state.changed, chat.typing
		namePattern: regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`),
		// Patterns may end in {placeholder} segments: chat.typing.{userID}
		patternPattern: regexp.MustCompile(`^[a-z][a-z0-9]*(\.([a-z][a-z0-9]*|\{[a-zA-Z]+\}))*$`),
		modulePattern:  regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	pattern := topic.Pattern()
	if !v.patternPattern.MatchString(pattern) {
		return fmt.Errorf("invalid topic pattern %q", pattern)
	}
	if !strings.HasPrefix(pattern, topic.Name()) {
		return fmt.Errorf("pattern %q must extend the topic name %q", pattern, topic.Name())
	}

	switch topic.Scope() {
	case ScopeEngine:
		if topic.Module() != "" {
			return fmt.Errorf("engine topics should not have a module")
		}
		if !hasAnyPrefix(topic.Name(), engineTopicPrefixes) {
			return fmt.Errorf("engine topic must start with one of %v", engineTopicPrefixes)
		}
	case ScopeModule:
		if !v.modulePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module name %q must be lowercase alphanumeric with underscores", topic.Module())
		}
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase dotted segments")
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
