// Package session keeps small per-visitor flags between requests, such as
// dismissed announcements and flash messages.
package session

import (
	"encoding/json"
	"sync"

	"github.com/labstack/echo/v4"
)

const (
	// CookieName holds the session id
	CookieName = "sid"
	contextKey = "session"
	flashKey   = "_flash"
)

// Session is the flag map of one visitor
type Session struct {
	mu     sync.Mutex
	id     string
	values map[string]string
	dirty  bool
	isNew  bool
}

func newSession(id string, values map[string]string, isNew bool) *Session {
	if values == nil {
		values = make(map[string]string)
	}
	return &Session{id: id, values: values, isNew: isNew}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether the key is set to a truthy value
func (s *Session) Has(key string) bool {
	v, ok := s.Get(key)
	return ok && v != "" && v != "0" && v != "false"
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// AddFlash queues a one-time message
func (s *Session) AddFlash(level, message string) {
	flashes := s.peekFlashes()
	flashes = append(flashes, Flash{Level: level, Message: message})
	raw, _ := json.Marshal(flashes)
	s.Set(flashKey, string(raw))
}

// PopFlashes returns and clears the queued messages
func (s *Session) PopFlashes() []Flash {
	flashes := s.peekFlashes()
	if len(flashes) > 0 {
		s.Delete(flashKey)
	}
	return flashes
}

func (s *Session) peekFlashes() []Flash {
	raw, ok := s.Get(flashKey)
	if !ok {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

// Flash is a message shown once on the next page view
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Dirty reports whether the session changed since it was loaded
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// IsNew reports whether the visitor arrived without a known session
func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// FromContext returns the request's session, or a throwaway one when the
// session middleware is not installed.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}
	s := newSession("", nil, true)
	c.Set(contextKey, s)
	return s
}
