package session

import (
	"fmt"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/robfig/cron/v3"
)

func NewStore(opts Options) *Store {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	return &Store{
		sessions:     make(map[string]*Session),
		pending:      make(map[string]*PendingAction),
		historyLimit: opts.HistoryLimit,
		ttl:          opts.TTL,
		now:          time.Now,
	}
}

// SetClock replaces the time source used for access stamps and sweeps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// must hold write lock
func (s *Store) touch(sender string) *Session {
	sess, ok := s.sessions[sender]
	if !ok {
		sess = &Session{}
		s.sessions[sender] = sess
	}
	sess.lastAccess = s.now()
	return sess
}

// History returns a copy of the sender's messages, creating the session if
// needed. Every call refreshes the access time.
func (s *Store) History(sender string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sender)

	copied := make([]llm.Message, len(sess.messages))
	copy(copied, sess.messages)

	return copied
}

func (s *Store) Append(sender string, msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sender)
	sess.messages = append(sess.messages, msg)

	if over := len(sess.messages) - s.historyLimit; over > 0 {
		sess.messages = append([]llm.Message(nil), sess.messages[over:]...)
	}
}

// Clear drops both the history and any pending action for the sender.
func (s *Store) Clear(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sender)
	delete(s.pending, sender)
}

func (s *Store) HasPending(sender string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pending[sender]
	return ok
}

func (s *Store) Pending(sender string) (*PendingAction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	action, ok := s.pending[sender]
	if !ok {
		return nil, false
	}

	c := *action
	c.Calls = append([]llm.ToolCall(nil), action.Calls...)
	return &c, true
}

// SetPending stores action for sender, replacing any previous one. A zero
// CreatedAt is stamped with the store clock.
func (s *Store) SetPending(sender string, action *PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *action
	c.Calls = append([]llm.ToolCall(nil), action.Calls...)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.pending[sender] = &c
}

// TakePending removes and returns the sender's pending action. Only one of
// several concurrent callers gets it.
func (s *Store) TakePending(sender string) (*PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.pending[sender]
	if !ok {
		return nil, false
	}
	delete(s.pending, sender)
	return action, true
}

func (s *Store) ClearPending(sender string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, sender)
}

// Sweep removes sessions and pending actions idle for longer than the TTL.
func (s *Store) Sweep() (sessions, pending int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for sender, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, sender)
			sessions++
			logger.Debug("session expired", "sender", sender)
		}
	}

	for sender, action := range s.pending {
		if now.Sub(action.CreatedAt) > s.ttl {
			delete(s.pending, sender)
			pending++
			logger.Debug("pending action expired", "sender", sender, "id", action.ID)
		}
	}

	return sessions, pending
}

// StartSweeper schedules Sweep every interval. The returned func stops the
// schedule and waits for a running sweep to finish.
func (s *Store) StartSweeper(interval time.Duration) (stop func(), err error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}

	c := cron.New()
	_, err = c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		sessions, pending := s.Sweep()
		if sessions > 0 || pending > 0 {
			logger.Info("memory sweep", "sessions", sessions, "pending", pending)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}

	c.Start()
	logger.Debug("memory sweeper started", "interval", interval, "ttl", s.ttl)

	return func() {
		<-c.Stop().Done()
	}, nil
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Sessions: len(s.sessions), Pending: len(s.pending)}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}
