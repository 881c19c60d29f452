package dirty

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/logging"
)

// Default session lifetimes.
const (
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// SessionsConfig configures a Sessions store.
type SessionsConfig struct {
	// IdleTimeout is how long a session survives without being observed.
	IdleTimeout time.Duration
	// CleanupInterval is how often idle sessions are pruned. Zero or less
	// disables the background pruning; Prune can still be called directly.
	CleanupInterval time.Duration
	Logger          *zap.Logger
}

// Sessions holds one hash index per editing session.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	idle     time.Duration
	now      func() time.Time
	logger   *zap.Logger

	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type session struct {
	index    Index
	lastSeen time.Time
}

// NewSessions creates a session store and starts pruning idle sessions in
// the background. Call Stop to release it.
func NewSessions(cfg SessionsConfig) *Sessions {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	s := &Sessions{
		sessions: make(map[string]*session),
		idle:     idle,
		now:      time.Now,
		logger:   logging.OrNop(cfg.Logger),
	}
	if cfg.CleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.cleanup()
	}
	return s
}

// Observe records the current values of a session's fields and returns
// the ones that changed since the session last saw them.
func (s *Sessions) Observe(sessionID string, current []Field) []Field {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{index: Index{}}
		s.sessions[sessionID] = sess
	}
	changed, next := Update(sess.index, current)
	sess.index = next
	sess.lastSeen = s.now()
	return changed
}

// Forget drops a session.
func (s *Sessions) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune removes sessions idle for longer than the idle timeout and returns
// how many were removed.
func (s *Sessions) Prune() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("pruned idle dirty sessions",
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.sessions)))
	}
	return removed
}

func (s *Sessions) cleanup() {
	defer close(s.done)
	for {
		select {
		case <-s.ticker.C:
			s.Prune()
		case <-s.stop:
			return
		}
	}
}

// Stop ends background pruning and waits for it to exit.
func (s *Sessions) Stop() {
	if s.ticker == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.stop)
	})
	<-s.done
}
