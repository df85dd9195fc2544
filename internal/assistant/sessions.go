package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one chat turn. Roles are "user" and "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Greeting opens every new session
const Greeting = "Hello! I'm Terrabot, your AI climate assistant for Bengaluru. " +
	"I can help you with questions about air quality, temperature, water bodies, " +
	"urban heat islands, and climate data. What would you like to know?"

type session struct {
	messages []Message
	lastSeen time.Time
}

// SessionStore keeps chat histories in memory. Sessions expire after
// the TTL and each history is capped to the most recent messages.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	ttl         time.Duration
	maxMessages int
}

// NewSessionStore builds a store with the given expiry and history cap
func NewSessionStore(ttl time.Duration, maxMessages int) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxMessages <= 0 {
		maxMessages = 40
	}
	return &SessionStore{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

// Open returns the history for a session, creating it (with the
// greeting) when the id is empty or unknown. The returned id is the
// one the caller should keep using.
func (s *SessionStore) Open(id string) (string, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.lastSeen = time.Now()
			return id, copyMessages(sess.messages)
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	sess := &session{
		messages: []Message{{Role: "assistant", Content: Greeting}},
		lastSeen: time.Now(),
	}
	s.sessions[id] = sess
	return id, copyMessages(sess.messages)
}

// Append adds messages to a session, trimming the history to the cap.
// Unknown sessions are created silently.
func (s *SessionStore) Append(id string, messages ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.messages = append(sess.messages, messages...)
	if over := len(sess.messages) - s.maxMessages; over > 0 {
		sess.messages = sess.messages[over:]
	}
	sess.lastSeen = time.Now()
}

// History returns a copy of a session's messages, nil when unknown
func (s *SessionStore) History(id string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return copyMessages(sess.messages)
}

// Delete removes a session, reporting whether it existed
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Sweep removes sessions idle past the TTL and reports how many
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copyMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
