package state

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewMemoryManager(0)
	const user = int64(42)

	if m.InProgress(user) {
		t.Fatal("fresh manager must have no session")
	}
	if got := m.GetState(user); got != StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}

	m.SetState(user, State("awaiting_text"))
	if !m.InProgress(user) {
		t.Fatal("expected session in progress")
	}
	m.SetDraft(user, "draft")
	if draft, ok := m.Draft(user); !ok || draft != "draft" {
		t.Fatalf("draft = %v, %v", draft, ok)
	}

	m.Clear(user)
	if m.InProgress(user) {
		t.Fatal("cleared session must be gone")
	}
	if _, ok := m.Draft(user); ok {
		t.Fatal("cleared draft must be gone")
	}
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	m := NewMemoryManager(0)
	m.SetState(1, State("awaiting_text"))
	m.SetDraft(1, "one")

	if m.InProgress(2) {
		t.Fatal("user 2 must not see user 1's session")
	}
	m.SetState(2, State("awaiting_buttons"))
	if got := m.GetState(1); got != State("awaiting_text") {
		t.Fatalf("user 1 state = %q", got)
	}
	m.Clear(2)
	if draft, ok := m.Draft(1); !ok || draft != "one" {
		t.Fatalf("user 1 draft lost: %v, %v", draft, ok)
	}
}

func TestIdleEviction(t *testing.T) {
	m := NewMemoryManager(time.Minute).(*memoryManager)
	current := time.Unix(1000, 0)
	m.now = func() time.Time { return current }

	m.SetState(7, State("awaiting_text"))
	if !m.InProgress(7) {
		t.Fatal("expected active session")
	}

	current = current.Add(30 * time.Second)
	if !m.InProgress(7) {
		t.Fatal("session evicted before ttl")
	}

	current = current.Add(2 * time.Minute)
	if m.InProgress(7) {
		t.Fatal("session must be evicted after ttl")
	}
	if got := m.GetState(7); got != StateIdle {
		t.Fatalf("state after eviction = %q", got)
	}
}

func TestZeroTTLNeverEvicts(t *testing.T) {
	m := NewMemoryManager(0).(*memoryManager)
	current := time.Unix(1000, 0)
	m.now = func() time.Time { return current }

	m.SetState(7, State("awaiting_photo"))
	current = current.Add(1000 * time.Hour)
	if !m.InProgress(7) {
		t.Fatal("ttl 0 must keep sessions forever")
	}
}
