package posting

import (
	"fmt"
	"strings"

	"autopostbot/core/logger"
	"autopostbot/core/storage"
	tghelpers "autopostbot/core/telegram/helpers"
	"autopostbot/core/telegram/keyboard"
	"autopostbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// Conversation states for the post creation flow.
const (
	StateAwaitingText    = state.State("awaiting_text")
	StateAwaitingPhoto   = state.State("awaiting_photo")
	StateAwaitingButtons = state.State("awaiting_buttons")
)

// CancelAction is the callback key wired to the inline cancel button.
const CancelAction = "post_cancel"

const skipWord = "skip"

const (
	promptText    = "Send the post text."
	promptPhoto   = "Now send a photo, or reply 'skip'."
	promptButtons = "Now send inline buttons, one per line as 'Label - https://url', or reply 'skip'."
	replyCanceled = "Post creation cancelled."
)

// Draft accumulates post fields across conversation steps.
type Draft struct {
	Text  string
	Photo *string
}

// Flow drives the multi-step post creation dialogue. Stage methods take
// plain inputs and return the reply to show, so the dialogue logic stays
// independent of the transport.
type Flow struct {
	states state.Manager
	store  *storage.Store
}

func NewFlow(states state.Manager, store *storage.Store) *Flow {
	f := &Flow{states: states, store: store}
	state.RegisterHandler(StateAwaitingText, f.onStage)
	state.RegisterHandler(StateAwaitingPhoto, f.onStage)
	state.RegisterHandler(StateAwaitingButtons, f.onStage)
	return f
}

// Begin opens a fresh session in the first stage.
func (f *Flow) Begin(userID int64) string {
	f.states.Clear(userID)
	f.states.SetState(userID, StateAwaitingText)
	f.states.SetDraft(userID, &Draft{})
	return promptText
}

// Cancel drops the active session, if any.
func (f *Flow) Cancel(userID int64) string {
	f.states.Clear(userID)
	return replyCanceled
}

// AdvanceText consumes the post text and moves to the photo stage.
func (f *Flow) AdvanceText(userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return promptText
	}
	draft := f.draft(userID)
	draft.Text = text
	f.states.SetDraft(userID, draft)
	f.states.SetState(userID, StateAwaitingPhoto)
	return promptPhoto
}

// AdvancePhoto consumes a photo file id or the skip word. Any other input
// repeats the prompt and keeps the stage unchanged.
func (f *Flow) AdvancePhoto(userID int64, fileID, text string) string {
	draft := f.draft(userID)
	switch {
	case fileID != "":
		photo := fileID
		draft.Photo = &photo
	case strings.ToLower(strings.TrimSpace(text)) == skipWord:
		draft.Photo = nil
	default:
		return promptPhoto
	}
	f.states.SetDraft(userID, draft)
	f.states.SetState(userID, StateAwaitingButtons)
	return promptButtons
}

// AdvanceButtons parses the button lines, commits the finished post, and
// closes the session. A malformed submission is rejected as a whole: the
// stage does not advance and nothing is stored.
func (f *Flow) AdvanceButtons(userID int64, text string) string {
	var buttons []storage.Button
	if strings.ToLower(strings.TrimSpace(text)) != skipWord {
		parsed, err := parseButtons(text)
		if err != nil {
			return err.Error() + "\n" + promptButtons
		}
		buttons = parsed
	}

	draft := f.draft(userID)
	post := storage.Post{Text: draft.Text, Photo: draft.Photo, Buttons: buttons}
	pos, err := f.store.Enqueue(post)
	if err != nil {
		logger.Error(logger.Background(), "fsm", "post.commit",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return "Could not save the post, try again."
	}
	f.states.Clear(userID)
	return fmt.Sprintf("Post added to the queue at position %d.", pos)
}

func (f *Flow) draft(userID int64) *Draft {
	if v, ok := f.states.Draft(userID); ok {
		if d, ok := v.(*Draft); ok {
			return d
		}
	}
	d := &Draft{}
	f.states.SetDraft(userID, d)
	return d
}

// parseButtons turns "Label - URL" lines into buttons. The separator is the
// first " - " occurrence, so labels and URLs may contain dashes. Every line
// must parse, blank ones included: one bad line rejects the submission.
func parseButtons(text string) ([]storage.Button, error) {
	var buttons []storage.Button
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		label, url, found := strings.Cut(line, " - ")
		label = strings.TrimSpace(label)
		url = strings.TrimSpace(url)
		if !found || label == "" || url == "" {
			return nil, fmt.Errorf("bad button line %q, expected 'Label - https://url'", line)
		}
		buttons = append(buttons, storage.Button{Label: label, URL: url})
	}
	return buttons, nil
}

// onStage routes an in-conversation update to the stage matching the
// user's current state. Only the photo stage accepts media; elsewhere a
// photo re-prompts without a transition, so a caption is never mistaken
// for the post text or a button list.
func (f *Flow) onStage(c tele.Context) error {
	userID := c.Sender().ID
	fileID := ""
	if msg := c.Message(); msg != nil && msg.Photo != nil {
		fileID = msg.Photo.FileID
	}

	var reply string
	switch f.states.GetState(userID) {
	case StateAwaitingText:
		if fileID != "" {
			reply = promptText
		} else {
			reply = f.AdvanceText(userID, c.Text())
		}
	case StateAwaitingPhoto:
		reply = f.AdvancePhoto(userID, fileID, c.Text())
	case StateAwaitingButtons:
		if fileID != "" {
			reply = promptButtons
		} else {
			reply = f.AdvanceButtons(userID, c.Text())
		}
	default:
		return nil
	}

	if f.states.InProgress(userID) {
		return tghelpers.SendWithMarkup(c, reply, keyboard.SingleCancelMarkup(CancelAction))
	}
	return tghelpers.SendText(c, reply)
}

// onCancel handles the inline cancel button for any stage.
func (f *Flow) onCancel(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	reply := f.Cancel(c.Sender().ID)
	return tghelpers.EditOrSendMD(c, reply)
}
