package tui

import (
	"fmt"
	"strings"
)

// State tracks the raw answers and the errors carried over from a previous
// attempt. Answers are kept as strings, the same shape an HTML form posts.
type State struct {
	values map[string]string
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	s := &State{
		values: make(map[string]string, len(prefill)),
		errors: make(map[string][]string, len(errs)),
	}
	for key, value := range prefill {
		if str, ok := stringValue(value); ok {
			s.values[key] = str
		}
	}
	for key, messages := range errs {
		s.errors[key] = append([]string(nil), messages...)
	}
	return s
}

// Values returns the collected answers (mutable).
func (s *State) Values() map[string]string {
	if s == nil {
		return nil
	}
	return s.values
}

// Value returns the answer for name.
func (s *State) Value(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[name]
	return v, ok
}

// SetValue stores an answer and clears the errors attached to it.
func (s *State) SetValue(name, value string) {
	if s == nil {
		return
	}
	s.values[name] = value
	delete(s.errors, name)
}

// ErrorsFor returns the errors attached to name.
func (s *State) ErrorsFor(name string) []string {
	if s == nil {
		return nil
	}
	return s.errors[name]
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(v), true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return strings.TrimSpace(v[0]), true
	default:
		return fmt.Sprint(v), true
	}
}
