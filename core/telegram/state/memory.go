package state

import (
	"sync"
	"time"

	"autopostbot/core/logger"
	tghelpers "autopostbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	// ttl evicts sessions idle for longer than this; 0 keeps them forever.
	ttl time.Duration
	now func() time.Time
}

// NewMemoryManager constructs an in-memory Manager. Sessions are transient
// and lost on restart. A non-zero ttl evicts abandoned sessions lazily on
// the next access.
func NewMemoryManager(ttl time.Duration) Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// expired reports whether the session passed its idle lifetime. Callers must hold mu.
func (m *memoryManager) expired(sess *Session) bool {
	return m.ttl > 0 && m.now().Sub(sess.Touched) > m.ttl
}

func (m *memoryManager) evict(userID int64, sess *Session) {
	delete(m.sessions, userID)
	logger.Info(logger.Background(), "fsm", "session.evicted",
		slog.Int64("user_id", userID),
		slog.String("state", string(sess.State)),
	)
}

// session returns a live session or nil, evicting stale entries. Callers must hold mu for writing.
func (m *memoryManager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	if m.expired(sess) {
		m.evict(userID, sess)
		return nil
	}
	return sess
}

// SetState sets the FSM state for the given user, creating a session if necessary.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	if sess == nil {
		sess = &Session{}
		m.sessions[userID] = sess
	}
	sess.State = st
	sess.Touched = m.now()
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess := m.session(userID); sess != nil {
		return sess.State
	}
	return StateIdle
}

// HasState checks if a user has an active state other than idle.
func (m *memoryManager) HasState(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	return sess != nil && sess.State != StateIdle
}

// SetDraft stores the in-progress draft for the given user session.
func (m *memoryManager) SetDraft(userID int64, draft any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	if sess == nil {
		sess = &Session{State: StateIdle}
		m.sessions[userID] = sess
	}
	sess.Draft = draft
	sess.Touched = m.now()
}

// Draft retrieves the in-progress draft for the given user session.
func (m *memoryManager) Draft(userID int64) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	if sess == nil || sess.Draft == nil {
		return nil, false
	}
	return sess.Draft, true
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.HasState(userID)
}

// ManagerHandler executes the handler function registered for the user's current state, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "fsm", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)

	if handler, ok := fsmHandlers[current]; ok {
		return handler(c)
	}
	return nil
}
