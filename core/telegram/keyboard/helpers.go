package keyboard

import tele "gopkg.in/telebot.v4"

// LinkBtn describes an inline button that opens a URL.
type LinkBtn struct {
	Text string
	URL  string
}

const defaultCancelButtonText = "❌ Cancel"

// InlineLinks builds an inline keyboard where each link is placed on its own row.
func InlineLinks(links []LinkBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(links))
	for _, l := range links {
		btn := markup.URL(l.Text, l.URL)
		inline = append(inline, []tele.InlineButton{*btn.Inline()})
	}
	markup.InlineKeyboard = inline
	return markup
}

// CancelButton returns a reusable cancel inline button for the provided markup and action.
// Optional arguments allow overriding payload (first value) and button label (second value).
func CancelButton(markup *tele.ReplyMarkup, action string, options ...string) tele.Btn {
	payload := "cancel"
	if len(options) > 0 && options[0] != "" {
		payload = options[0]
	}
	text := defaultCancelButtonText
	if len(options) > 1 && options[1] != "" {
		text = options[1]
	}
	return markup.Data(text, action, payload)
}

// SingleCancelMarkup creates an inline keyboard with a single cancel button.
func SingleCancelMarkup(action string, options ...string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	btn := CancelButton(markup, action, options...)
	markup.InlineKeyboard = [][]tele.InlineButton{{*btn.Inline()}}
	return markup
}
