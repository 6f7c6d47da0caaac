package posting

import (
	"path/filepath"
	"strings"
	"testing"

	"autopostbot/core/storage"
	"autopostbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// stageContext fakes the slice of tele.Context the stage handler touches.
type stageContext struct {
	tele.Context
	sender *tele.User
	msg    *tele.Message
	sent   []string
}

func photoUpdate(userID int64, caption string) *stageContext {
	return &stageContext{
		sender: &tele.User{ID: userID},
		msg: &tele.Message{
			Photo:   &tele.Photo{File: tele.File{FileID: "photo-1"}},
			Caption: caption,
		},
	}
}

func (s *stageContext) Sender() *tele.User     { return s.sender }
func (s *stageContext) Message() *tele.Message { return s.msg }
func (s *stageContext) Text() string {
	if s.msg.Photo != nil {
		return s.msg.Caption
	}
	return s.msg.Text
}

func (s *stageContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

func newFlow(t *testing.T) (*Flow, *storage.Store, state.Manager) {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	states := state.NewMemoryManager(0)
	return NewFlow(states, st), st, states
}

func TestParseButtons(t *testing.T) {
	buttons, err := parseButtons("Buy - https://x.com\nVisit - https://y.com")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(buttons) != 2 {
		t.Fatalf("parsed %d buttons, want 2", len(buttons))
	}
	if buttons[0].Label != "Buy" || buttons[0].URL != "https://x.com" {
		t.Fatalf("first button = %+v", buttons[0])
	}
	if buttons[1].Label != "Visit" || buttons[1].URL != "https://y.com" {
		t.Fatalf("second button = %+v", buttons[1])
	}
}

func TestParseButtonsSplitsOnFirstSeparator(t *testing.T) {
	buttons, err := parseButtons("Go - now - https://z.com")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if buttons[0].Label != "Go" || buttons[0].URL != "now - https://z.com" {
		t.Fatalf("button = %+v", buttons[0])
	}
}

func TestParseButtonsTrimsLabelAndURL(t *testing.T) {
	buttons, err := parseButtons("  Docs -   https://docs.example  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(buttons) != 1 || buttons[0].Label != "Docs" || buttons[0].URL != "https://docs.example" {
		t.Fatalf("buttons = %+v", buttons)
	}
}

func TestParseButtonsRejectsMalformedLine(t *testing.T) {
	for _, input := range []string{
		"Label http://x",
		"Ok - https://a.com\nbroken line",
		" - https://a.com",
		"Label - ",
		"Buy - https://x.com\n\n",
		"",
	} {
		if _, err := parseButtons(input); err == nil {
			t.Fatalf("parseButtons(%q) accepted malformed input", input)
		}
	}
}

func TestFullFlowCommitsPost(t *testing.T) {
	flow, st, states := newFlow(t)
	const user = int64(9)

	flow.Begin(user)
	if got := states.GetState(user); got != StateAwaitingText {
		t.Fatalf("state after begin = %q", got)
	}

	flow.AdvanceText(user, "Hello subscribers")
	if got := states.GetState(user); got != StateAwaitingPhoto {
		t.Fatalf("state after text = %q", got)
	}

	flow.AdvancePhoto(user, "", "SKIP ")
	if got := states.GetState(user); got != StateAwaitingButtons {
		t.Fatalf("state after photo skip = %q", got)
	}

	reply := flow.AdvanceButtons(user, "Buy - https://x.com\nVisit - https://y.com")
	if !strings.Contains(reply, "position 1") {
		t.Fatalf("commit reply = %q", reply)
	}
	if states.InProgress(user) {
		t.Fatal("session must be closed after commit")
	}

	posts := st.Posts()
	if len(posts) != 1 {
		t.Fatalf("stored %d posts, want 1", len(posts))
	}
	p := posts[0]
	if p.Text != "Hello subscribers" || p.Photo != nil || len(p.Buttons) != 2 {
		t.Fatalf("stored post = %+v", p)
	}
}

func TestFlowKeepsPhoto(t *testing.T) {
	flow, st, _ := newFlow(t)
	const user = int64(3)

	flow.Begin(user)
	flow.AdvanceText(user, "with photo")
	flow.AdvancePhoto(user, "file-id-1", "")
	flow.AdvanceButtons(user, "skip")

	posts := st.Posts()
	if len(posts) != 1 || posts[0].Photo == nil || *posts[0].Photo != "file-id-1" {
		t.Fatalf("stored posts = %+v", posts)
	}
	if len(posts[0].Buttons) != 0 {
		t.Fatalf("buttons = %+v", posts[0].Buttons)
	}
}

func TestPhotoStageRepromptsOnOtherInput(t *testing.T) {
	flow, _, states := newFlow(t)
	const user = int64(4)

	flow.Begin(user)
	flow.AdvanceText(user, "text")
	reply := flow.AdvancePhoto(user, "", "not a photo")
	if reply != promptPhoto {
		t.Fatalf("reply = %q", reply)
	}
	if got := states.GetState(user); got != StateAwaitingPhoto {
		t.Fatalf("state = %q, want unchanged", got)
	}
}

func TestMalformedButtonsLeaveStateAndQueueUnchanged(t *testing.T) {
	flow, st, states := newFlow(t)
	const user = int64(5)

	flow.Begin(user)
	flow.AdvanceText(user, "draft")
	flow.AdvancePhoto(user, "", "skip")

	reply := flow.AdvanceButtons(user, "Label http://x")
	if !strings.Contains(reply, "bad button line") {
		t.Fatalf("reply = %q", reply)
	}
	if got := states.GetState(user); got != StateAwaitingButtons {
		t.Fatalf("state = %q, want awaiting_buttons", got)
	}
	if st.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", st.Len())
	}

	flow.AdvanceButtons(user, "Fixed - https://x.com")
	if st.Len() != 1 {
		t.Fatalf("queue len after fix = %d, want 1", st.Len())
	}
}

func TestEmptyTextReprompts(t *testing.T) {
	flow, _, states := newFlow(t)
	const user = int64(6)

	flow.Begin(user)
	if reply := flow.AdvanceText(user, "   "); reply != promptText {
		t.Fatalf("reply = %q", reply)
	}
	if got := states.GetState(user); got != StateAwaitingText {
		t.Fatalf("state = %q, want awaiting_text", got)
	}
}

func TestPhotoRejectedInTextStage(t *testing.T) {
	flow, st, states := newFlow(t)
	const user = int64(11)

	flow.Begin(user)
	if err := flow.onStage(photoUpdate(user, "caption text")); err != nil {
		t.Fatalf("stage: %v", err)
	}

	if got := states.GetState(user); got != StateAwaitingText {
		t.Fatalf("state = %q, want awaiting_text", got)
	}
	if draft := flow.draft(user); draft.Text != "" || draft.Photo != nil {
		t.Fatalf("draft mutated by photo update: %+v", draft)
	}
	if st.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", st.Len())
	}
}

func TestPhotoCaptionedSkipRejectedInButtonsStage(t *testing.T) {
	flow, st, states := newFlow(t)
	const user = int64(12)

	flow.Begin(user)
	flow.AdvanceText(user, "text")
	flow.AdvancePhoto(user, "", "skip")

	if err := flow.onStage(photoUpdate(user, "skip")); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if got := states.GetState(user); got != StateAwaitingButtons {
		t.Fatalf("state = %q, want awaiting_buttons", got)
	}
	if st.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", st.Len())
	}
}

func TestPhotoAcceptedInPhotoStage(t *testing.T) {
	flow, st, _ := newFlow(t)
	const user = int64(13)

	flow.Begin(user)
	flow.AdvanceText(user, "text")
	if err := flow.onStage(photoUpdate(user, "")); err != nil {
		t.Fatalf("stage: %v", err)
	}

	flow.AdvanceButtons(user, "skip")
	posts := st.Posts()
	if len(posts) != 1 || posts[0].Photo == nil || *posts[0].Photo != "photo-1" {
		t.Fatalf("stored posts = %+v", posts)
	}
}

func TestCancelClearsSession(t *testing.T) {
	flow, st, states := newFlow(t)
	const user = int64(7)

	flow.Begin(user)
	flow.AdvanceText(user, "abandoned")
	flow.Cancel(user)

	if states.InProgress(user) {
		t.Fatal("session must be gone after cancel")
	}
	if st.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", st.Len())
	}
}
