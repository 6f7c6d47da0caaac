package publisher

import (
	"context"
	"time"

	coreconfig "autopostbot/core/config"
	"autopostbot/core/logger"
	"autopostbot/core/storage"
	"autopostbot/core/telegram/netutil"
	tgsender "autopostbot/core/telegram/sender"

	"log/slog"
)

// Sender delivers a single post to a destination chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, buttons []storage.Button) error
	SendPhoto(ctx context.Context, chatID int64, photo, caption string, buttons []storage.Button) error
}

// Options configures the publishing loop.
type Options struct {
	Interval time.Duration
	Policy   string
}

// Publisher drains the persistent queue at a fixed cadence.
type Publisher struct {
	store  *storage.Store
	sender Sender
	opts   Options
}

func New(store *storage.Store, sender Sender, opts Options) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = 600 * time.Second
	}
	if opts.Policy == "" {
		opts.Policy = coreconfig.PublishPolicyDrop
	}
	return &Publisher{store: store, sender: sender, opts: opts}
}

// Run ticks until ctx is cancelled. The interval is measured from the end
// of one tick to the start of the next, so a slow delivery never causes
// overlapping ticks.
func (p *Publisher) Run(ctx context.Context) error {
	logger.Info(ctx, "publisher", "publish.start",
		slog.Int64("interval_s", int64(p.opts.Interval/time.Second)),
		slog.String("policy", p.opts.Policy),
	)
	timer := time.NewTimer(p.opts.Interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	// Tick first, sleep after: a post due at startup goes out right away
	// instead of waiting out a full interval.
	for {
		p.Tick(ctx)
		timer.Reset(p.opts.Interval)
		select {
		case <-ctx.Done():
			logger.Info(ctx, "publisher", "publish.stop")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tick publishes at most one post: the queue head, if a destination chat
// is configured and the queue is non-empty.
func (p *Publisher) Tick(ctx context.Context) {
	chatID, post, ok := p.store.DequeueHead()
	if !ok {
		logger.Debug(ctx, "publisher", "publish.tick",
			slog.String("status", "skip"),
			slog.Int("queue_len", p.store.Len()),
		)
		return
	}

	start := time.Now()
	err := p.deliver(ctx, chatID, post)
	if err != nil && p.opts.Policy == coreconfig.PublishPolicyRetryOnce && netutil.ShouldRetry(err) {
		logger.Warn(ctx, "publisher", "publish.retry",
			slog.Int64("dest", chatID),
			slog.String("err", tgsender.SanitizeErrorMessage(err)),
		)
		err = p.deliver(ctx, chatID, post)
	}

	took := logger.RoundMS(time.Since(start)).Milliseconds()
	if err != nil {
		logger.Error(ctx, "publisher", "publish.tick",
			slog.String("status", "drop"),
			slog.Int64("dest", chatID),
			slog.String("post", logger.SanitizeLimit(post.Text, 64)),
			slog.String("err", tgsender.SanitizeErrorMessage(err)),
			slog.String("err_code", tgsender.ClassifyError(err)),
			slog.Int("queue_len", p.store.Len()),
			slog.Int64("duration_ms", took),
		)
		return
	}

	logger.Info(ctx, "publisher", "publish.tick",
		slog.String("status", "ok"),
		slog.Int64("dest", chatID),
		slog.Int("buttons", len(post.Buttons)),
		slog.Int("queue_len", p.store.Len()),
		slog.Int64("duration_ms", took),
	)
}

func (p *Publisher) deliver(ctx context.Context, chatID int64, post storage.Post) error {
	if post.Photo != nil && *post.Photo != "" {
		return p.sender.SendPhoto(ctx, chatID, *post.Photo, post.Text, post.Buttons)
	}
	return p.sender.SendText(ctx, chatID, post.Text, post.Buttons)
}
