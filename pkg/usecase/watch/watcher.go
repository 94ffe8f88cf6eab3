package watch

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/model"
	"github.com/m-mizutani/recap/pkg/repository"
	"github.com/m-mizutani/recap/pkg/utils/logging"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 10s"

type Summarizer interface {
	Summarize(ctx context.Context, messages []string) string
}

type Sender interface {
	Send(ctx context.Context, summary string) error
}

// State is the loop state carried between ticks. It lives only in memory.
type State struct {
	ChatID model.ChatID
	// Watermark is the lower bound of the next scan. It never moves backward.
	Watermark time.Time
	// LastTriggerID is the newest trigger message already handled
	LastTriggerID model.MessageID
}

// Watcher polls a chat for the trigger phrase and replies with a summary
type Watcher struct {
	store      repository.MessageStore
	summarizer Summarizer
	sender     Sender

	chatName string
	trigger  string
	window   time.Duration
	schedule cron.Schedule

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// Config contains parameters of Watcher
type Config struct {
	ChatName string
	Trigger  string
	// Window is the lookback duration of messages to summarize
	Window   time.Duration
	Schedule cron.Schedule
}

type Option func(*Watcher)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

// WithWait replaces the function that sleeps between ticks
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Watcher) {
		w.wait = wait
	}
}

// ParseSchedule parses a cron spec such as "@every 10s" or "*/1 * * * *"
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid schedule", goerr.V("schedule", spec))
	}
	return sched, nil
}

func New(store repository.MessageStore, summarizer Summarizer, sender Sender, cfg Config, opts ...Option) (*Watcher, error) {
	if cfg.ChatName == "" {
		return nil, goerr.New("chat name is required")
	}
	if cfg.Trigger == "" {
		return nil, goerr.New("trigger phrase is required")
	}
	if cfg.Window <= 0 {
		return nil, goerr.New("window must be positive", goerr.V("window", cfg.Window))
	}

	w := &Watcher{
		store:      store,
		summarizer: summarizer,
		sender:     sender,
		chatName:   cfg.ChatName,
		trigger:    cfg.Trigger,
		window:     cfg.Window,
		schedule:   cfg.Schedule,
		now:        time.Now,
		wait:       sleep,
	}
	if w.schedule == nil {
		w.schedule = cron.Every(10 * time.Second)
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Start resolves the chat and returns the initial state. Scanning starts
// one window before now.
func (w *Watcher) Start(ctx context.Context) (*State, error) {
	chatID, err := w.store.ResolveChat(ctx, w.chatName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve chat", goerr.V("chat", w.chatName))
	}

	return &State{
		ChatID:    chatID,
		Watermark: w.now().Add(-w.window),
	}, nil
}

// Tick scans messages since the watermark and, on the first unhandled
// trigger message, summarizes the last window and sends it. Other trigger
// messages in the same scan are ignored.
func (w *Watcher) Tick(ctx context.Context, state *State) (bool, error) {
	logger := logging.From(ctx)
	now := w.now()

	messages, err := w.store.ListMessages(ctx, state.ChatID, state.Watermark)
	if err != nil {
		return false, goerr.Wrap(err, "failed to scan messages", goerr.V("since", state.Watermark))
	}
	logger.Debug("scanned messages", "since", state.Watermark, "count", len(messages))

	if now.After(state.Watermark) {
		state.Watermark = now
	}

	var trigger *model.Message
	for _, msg := range messages {
		if msg.ID > state.LastTriggerID && model.IsTrigger(msg.Text, w.trigger) {
			trigger = msg
			break
		}
	}
	if trigger == nil {
		return false, nil
	}

	eventID := model.NewEventID()
	logger = logger.With("event_id", eventID)
	ctx = logging.With(ctx, logger)

	history, err := w.store.ListMessages(ctx, state.ChatID, now.Add(-w.window))
	if err != nil {
		return false, goerr.Wrap(err, "failed to fetch history", goerr.V("event_id", eventID))
	}
	logger.Info("trigger detected", "message_id", trigger.ID, "history", len(history))

	summary := w.summarizer.Summarize(ctx, model.Texts(history))

	if err := w.sender.Send(ctx, summary); err != nil {
		return false, goerr.Wrap(err, "failed to deliver summary",
			goerr.V("event_id", eventID),
			goerr.V("message_id", trigger.ID))
	}
	state.LastTriggerID = trigger.ID

	return true, nil
}

// Run resolves the chat and polls until ctx is canceled. Store and delivery
// errors stop the loop and are returned.
func (w *Watcher) Run(ctx context.Context) error {
	state, err := w.Start(ctx)
	if err != nil {
		return err
	}

	logger := logging.From(ctx)
	logger.Info("monitoring",
		"chat", w.chatName,
		"chat_id", state.ChatID,
		"trigger", w.trigger,
		"window", w.window)

	for {
		if _, err := w.Tick(ctx, state); err != nil {
			if ctx.Err() != nil {
				logger.Info("stop monitoring", "reason", ctx.Err())
				return nil
			}
			return err
		}

		now := w.now()
		next := w.schedule.Next(now)
		if err := w.wait(ctx, next.Sub(now)); err != nil {
			if ctx.Err() != nil {
				logger.Info("stop monitoring", "reason", ctx.Err())
				return nil
			}
			return goerr.Wrap(err, "failed to wait next tick")
		}
	}
}
