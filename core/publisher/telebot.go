package publisher

import (
	"context"

	"autopostbot/core/storage"
	"autopostbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// BotSender adapts a live telebot instance to the Sender interface.
type BotSender struct {
	bot *tele.Bot
}

func NewBotSender(bot *tele.Bot) *BotSender {
	return &BotSender{bot: bot}
}

func (s *BotSender) SendText(_ context.Context, chatID int64, text string, buttons []storage.Button) error {
	_, err := s.bot.Send(tele.ChatID(chatID), text, sendOpts(buttons)...)
	return err
}

func (s *BotSender) SendPhoto(_ context.Context, chatID int64, photo, caption string, buttons []storage.Button) error {
	msg := &tele.Photo{File: tele.File{FileID: photo}, Caption: caption}
	_, err := s.bot.Send(tele.ChatID(chatID), msg, sendOpts(buttons)...)
	return err
}

func sendOpts(buttons []storage.Button) []interface{} {
	if len(buttons) == 0 {
		return nil
	}
	links := make([]keyboard.LinkBtn, 0, len(buttons))
	for _, b := range buttons {
		links = append(links, keyboard.LinkBtn{Text: b.Label, URL: b.URL})
	}
	return []interface{}{keyboard.InlineLinks(links)}
}
