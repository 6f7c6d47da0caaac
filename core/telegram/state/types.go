package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and the in-progress draft for a user.
type Session struct {
	State State
	// Draft carries flow-specific data accumulated across steps.
	Draft any
	// Touched records the last stage transition, used for idle eviction.
	Touched time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	SetDraft(userID int64, draft any)
	Draft(userID int64) (any, bool)
	Clear(userID int64)

	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}
