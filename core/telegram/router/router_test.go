package router

import (
	"testing"

	tg "autopostbot/core/telegram"
	"autopostbot/core/telegram/commands"
	"autopostbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements just enough of tele.Context for routing tests.
// Calling an unimplemented method panics, which is itself a test failure.
type fakeContext struct {
	tele.Context
	sender *tele.User
	text   string
	stash  map[string]any
	sent   []string
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		text:   text,
		stash:  make(map[string]any),
	}
}

func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Message() *tele.Message   { return &tele.Message{Text: f.text} }
func (f *fakeContext) Callback() *tele.Callback { return nil }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Set(key string, val any)  { f.stash[key] = val }
func (f *fakeContext) Get(key string) any       { return f.stash[key] }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func adminRegistry(handled *bool) *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/addpost", commands.Command{
		Handler: func(c tele.Context) error {
			*handled = true
			return nil
		},
		Description: "Queue a new post",
		AdminOnly:   true,
	})
	return reg
}

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestBareTextLookupGatesAdminCommands(t *testing.T) {
	var handled, rejected bool
	reg := adminRegistry(&handled)

	routes := TextRoutes(nil, reg, TextOptions{
		Admin: middleware.AdminOptions{
			AdminIDs: map[int64]struct{}{42: {}},
			OnReject: func(c tele.Context) error {
				rejected = true
				return nil
			},
		},
	})

	if err := textHandler(t, routes)(newFakeContext(777, "addpost")); err != nil {
		t.Fatalf("route: %v", err)
	}
	if handled {
		t.Fatal("admin-only handler ran for non-admin via bare text")
	}
	if !rejected {
		t.Fatal("reject hook did not fire for non-admin")
	}
}

func TestBareTextLookupAllowsAdmins(t *testing.T) {
	var handled, rejected bool
	reg := adminRegistry(&handled)

	routes := TextRoutes(nil, reg, TextOptions{
		Admin: middleware.AdminOptions{
			AdminIDs: map[int64]struct{}{42: {}},
			OnReject: func(c tele.Context) error {
				rejected = true
				return nil
			},
		},
	})

	if err := textHandler(t, routes)(newFakeContext(42, "addpost")); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !handled {
		t.Fatal("admin-only handler did not run for admin")
	}
	if rejected {
		t.Fatal("reject hook fired for admin")
	}
}
