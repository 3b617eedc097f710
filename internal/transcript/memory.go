package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/psds-microservice/support-chat/internal/model"
)

type memorySession struct {
	entries   []model.TranscriptEntry
	expiresAt time.Time
}

// MemoryStore хранит журналы в памяти процесса, для одного инстанса и тестов.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, e model.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.live(sessionID, now)
	if sess == nil {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	sess.entries = append(sess.entries, e)
	sess.expiresAt = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]model.TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TranscriptEntry, 0)
	if sess := s.live(sessionID, s.now()); sess != nil {
		out = append(out, sess.entries...)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Sweep удаляет истёкшие сессии и возвращает их число.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor периодически вызывает Sweep до отмены ctx.
func (s *MemoryStore) RunJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// live: вызывать под mu. Истёкшая сессия удаляется.
func (s *MemoryStore) live(sessionID string, now time.Time) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if !now.Before(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}
