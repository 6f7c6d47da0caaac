package main

import (
	"context"
	"log"
	"strings"
	"time"

	"autopostbot/core/bootstrap"
	corecmd "autopostbot/core/cmd"
	coreconfig "autopostbot/core/config"
	"autopostbot/core/posting"
	"autopostbot/core/publisher"
	"autopostbot/core/storage"
	coretelegram "autopostbot/core/telegram"
	tghelpers "autopostbot/core/telegram/helpers"
	"autopostbot/core/telegram/middleware"
	"autopostbot/core/telegram/router"
	"autopostbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

type app struct {
	cfg    *coreconfig.Config
	store  *storage.Store
	states state.Manager
	flow   *posting.Flow

	stopPublisher context.CancelFunc
	publisherDone chan struct{}
}

func newApp(cfg *coreconfig.Config) (*app, error) {
	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	states := state.NewMemoryManager(time.Duration(cfg.Session.TTLSeconds) * time.Second)
	return &app{
		cfg:    cfg,
		store:  res.Store,
		states: states,
		flow:   posting.NewFlow(states, res.Store),
	}, nil
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	posting.Register(reg, a.store, a.flow)

	// Sessions are in-memory, so a cancel button outliving a restart lands
	// on the callback fallback.
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "This action has expired."})
	})
	reg.SetTextFallback(func(c tele.Context) error {
		if strings.HasPrefix(strings.TrimSpace(c.Text()), "/") {
			return tghelpers.SendText(c, "Unknown command. See /start.")
		}
		return nil
	})

	adminOpts := middleware.AdminOptions{
		AdminIDs: a.cfg.AdminSet(),
		OnReject: func(c tele.Context) error {
			return tghelpers.SendText(c, "This command is for administrators only.")
		},
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      adminOpts.AdminIDs,
		OnAdminReject: adminOpts.OnReject,
	})
	routes = append(routes, router.TextRoutes(a.states, reg, router.TextOptions{Admin: adminOpts})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.startPublisher,
		OnStop:      a.stopPublisherAndWait,
	}, nil
}

func (a *app) startPublisher(_ context.Context, rt coretelegram.Runtime) error {
	pub := publisher.New(a.store, publisher.NewBotSender(rt.Bot), publisher.Options{
		Interval: time.Duration(a.cfg.Publish.IntervalSeconds) * time.Second,
		Policy:   a.cfg.Publish.Policy,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopPublisher = cancel
	a.publisherDone = make(chan struct{})
	go func() {
		defer close(a.publisherDone)
		_ = pub.Run(ctx)
	}()
	return nil
}

func (a *app) stopPublisherAndWait(_ context.Context, _ coretelegram.Runtime) error {
	if a.stopPublisher == nil {
		return nil
	}
	a.stopPublisher()
	select {
	case <-a.publisherDone:
	case <-time.After(5 * time.Second):
	}
	return nil
}

func main() {
	err := corecmd.Run(corecmd.Options{
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return newApp(cfg)
		},
	})
	if err != nil {
		log.Fatalf("bot exited: %v", err)
	}
}
