package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Keys the marketplace keeps in a visitor session.
const (
	KeyCart  = "cart"
	KeyOrder = "order"
)

// Session is a server-side bag of JSON values keyed by name.
type Session struct {
	ID       string
	values   map[string]json.RawMessage
	modified bool
	isNew    bool
}

func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		values: make(map[string]json.RawMessage),
		isNew:  true,
	}
}

func restore(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values}
}

func (s *Session) IsNew() bool    { return s.isNew }
func (s *Session) Modified() bool { return s.modified }

func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get decodes the value stored under key into dst. It reports false when the
// key is absent.
func (s *Session) Get(key string, dst any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode session key %q: %w", key, err)
	}
	return true, nil
}

func (s *Session) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// OrderID returns the order the visitor is currently allowed to pay for.
func (s *Session) OrderID() (int64, bool) {
	var id int64
	ok, err := s.Get(KeyOrder, &id)
	if err != nil || !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Session) SetOrderID(id int64) {
	// int64 always marshals
	_ = s.Set(KeyOrder, id)
}

func (s *Session) ClearOrderID() {
	s.Delete(KeyOrder)
}

func (s *Session) snapshot() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
