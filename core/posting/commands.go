package posting

import (
	"fmt"
	"strconv"
	"strings"

	"autopostbot/core/logger"
	"autopostbot/core/storage"
	tg "autopostbot/core/telegram"
	"autopostbot/core/telegram/commands"
	tghelpers "autopostbot/core/telegram/helpers"
	"autopostbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const startHelp = `I queue posts and publish them to the channel on a schedule.

/setchat <chat_id> - set the destination channel
/addpost - queue a new post
/showqueue - list pending posts`

const previewRunes = 40

// Register wires the autoposting commands and callbacks into the registry.
func Register(reg *tg.Registry, store *storage.Store, flow *Flow) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     startHandler(),
		Description: "Show help",
	})
	reg.RegisterCommand("/setchat", commands.Command{
		Handler:     setChatHandler(store),
		Description: "Set the destination channel",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/addpost", commands.Command{
		Handler:     addPostHandler(flow),
		Description: "Queue a new post",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/showqueue", commands.Command{
		Handler:     showQueueHandler(store),
		Description: "List pending posts",
		AdminOnly:   true,
		Aliases:     []string{"queue"},
	})
	reg.RegisterCommand("/ping", commands.Command{
		Handler:     pingHandler(store),
		Description: "Liveness check",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(CancelAction, flow.onCancel); err != nil {
		logger.Warn(logger.Background(), "tg.wire", "callback.register",
			slog.String("status", "fail"),
			slog.String("cb_key", CancelAction),
			slog.String("err", err.Error()),
		)
	}
}

func startHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, startHelp)
	}
}

func setChatHandler(store *storage.Store) tele.HandlerFunc {
	return func(c tele.Context) error {
		payload := ""
		if msg := c.Message(); msg != nil {
			payload = strings.TrimSpace(msg.Payload)
		}
		chatID, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return tghelpers.SendText(c, "Usage: /setchat <chat_id>")
		}
		if err := store.SetChat(chatID); err != nil {
			logger.Error(tghelpers.BuildContext(c), "store", "chat.set",
				slog.String("status", "fail"),
				slog.Int64("dest", chatID),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, "Could not save the channel, try again.")
		}
		return tghelpers.SendText(c, fmt.Sprintf("Destination channel saved: %d", chatID))
	}
}

func addPostHandler(flow *Flow) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		reply := flow.Begin(c.Sender().ID)
		return tghelpers.SendWithMarkup(c, reply, keyboard.SingleCancelMarkup(CancelAction))
	}
}

func showQueueHandler(store *storage.Store) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, QueuePreview(store.Posts()))
	}
}

func pingHandler(store *storage.Store) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, fmt.Sprintf("pong, %d queued", store.Len()))
	}
}

// QueuePreview renders a 1-indexed listing with each post's text trimmed
// to a short preview. An ellipsis marks where the cut happened.
func QueuePreview(posts []storage.Post) string {
	if len(posts) == 0 {
		return "The queue is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Queue (%d):\n", len(posts))
	for i, p := range posts {
		text := p.Text
		if runes := []rune(text); len(runes) > previewRunes {
			text = string(runes[:previewRunes]) + "..."
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return strings.TrimRight(b.String(), "\n")
}
