package telegram

import (
	"testing"

	"autopostbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommandMatchesAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/showqueue", commands.Command{
		Handler:     noop,
		Description: "List pending posts",
		Aliases:     []string{"queue"},
	})

	for _, input := range []string{"/showqueue", "showqueue", "queue", "/queue"} {
		key, _, ok := reg.LookupCommand(input)
		if !ok {
			t.Fatalf("lookup %q failed", input)
		}
		if key != "/showqueue" {
			t.Fatalf("lookup %q = %q, want canonical /showqueue", input, key)
		}
	}

	if _, _, ok := reg.LookupCommand("nosuch"); ok {
		t.Fatal("lookup of unregistered command succeeded")
	}
}

func TestListCommandsFiltersHiddenAndAdmin(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Show help"})
	reg.RegisterCommand("/ping", commands.Command{Handler: noop, Description: "Liveness check", Hidden: true})
	reg.RegisterCommand("/addpost", commands.Command{Handler: noop, Description: "Queue a new post", AdminOnly: true})

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible commands = %+v", visible)
	}

	all := reg.ListCommands(false)
	if len(all) != 3 {
		t.Fatalf("all commands = %+v", all)
	}
}
