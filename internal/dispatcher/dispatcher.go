package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/slackgw"
)

// Config holds the dispatch loop's tuning knobs.
type Config struct {
	PollInterval   time.Duration
	BatchSize      int
	GatewayTimeout time.Duration
	RatePerSec     float64
	RateBurst      int
}

// Dispatcher periodically scans for due pending messages and drives each one
// through delivery. Ticks never overlap: Run processes messages sequentially
// on a single goroutine and only re-arms the ticker between ticks.
type Dispatcher struct {
	messages domain.MessageRepository
	users    domain.UserRepository
	gateway  slackgw.Gateway
	limiter  *rate.Limiter
	logger   *slog.Logger
	cfg      Config
}

func New(messages domain.MessageRepository, users domain.UserRepository, gateway slackgw.Gateway, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	return &Dispatcher{
		messages: messages,
		users:    users,
		gateway:  gateway,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst),
		logger:   logger.With("component", "dispatcher"),
		cfg:      cfg,
	}
}

// Run executes ticks at the configured interval until ctx is cancelled.
// A failing tick is logged and abandoned; the next tick retries
// independently.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "Starting dispatch loop", "poll_interval", d.cfg.PollInterval, "batch_size", d.cfg.BatchSize)
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := d.ProcessDue(ctx); err != nil {
				d.logger.ErrorContext(ctx, "Dispatch tick failed, will retry next interval", "error", err)
			}
		case <-ctx.Done():
			d.logger.InfoContext(ctx, "Dispatch loop stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// ProcessDue runs one tick: scan for due messages and attempt delivery of
// each. It returns the number of messages attempted. Only a store failure on
// the initial scan is an error; per-message failures are captured on the
// message rows and never abort the tick.
func (d *Dispatcher) ProcessDue(ctx context.Context) (int, error) {
	timer := time.Now()
	defer func() { tickDurationHist.Observe(time.Since(timer).Seconds()) }()

	now := time.Now().UTC()
	due, err := d.messages.ListDue(ctx, now, d.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("listing due messages: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	d.logger.InfoContext(ctx, "Processing due messages", "count", len(due))

	for _, msg := range due {
		d.deliver(ctx, msg, now)
	}
	return len(due), nil
}

// deliver attempts delivery of a single message and records the terminal
// status. All failure paths land in markFailed; none propagate.
func (d *Dispatcher) deliver(ctx context.Context, msg *domain.ScheduledMessage, now time.Time) {
	owner, err := d.users.GetByID(ctx, msg.UserID)
	if err != nil {
		d.logger.WarnContext(ctx, "Could not resolve message owner", "message_id", msg.ID, "user_id", msg.UserID, "error", err)
		d.markFailed(ctx, msg.ID, "user credential not found")
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		// Context cancelled mid-tick; leave the message pending for the next
		// tick rather than recording a spurious failure.
		d.logger.InfoContext(ctx, "Rate limiter wait aborted", "message_id", msg.ID, "error", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.GatewayTimeout)
	_, err = d.gateway.PostMessage(callCtx, owner.AccessToken, msg.ChannelID, msg.Body)
	cancel()

	if err != nil {
		d.logger.WarnContext(ctx, "Delivery failed", "message_id", msg.ID, "channel_id", msg.ChannelID, "error", err)
		d.markFailed(ctx, msg.ID, err.Error())
		return
	}

	changed, err := d.messages.MarkSent(ctx, msg.ID, now)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to mark message sent", "message_id", msg.ID, "error", err)
		return
	}
	if !changed {
		// The message left pending while the delivery was in flight, which
		// can only mean a concurrent cancel won the race.
		d.logger.DebugContext(ctx, "markSent lost the race, message no longer pending", "message_id", msg.ID)
		messagesProcessedCounter.WithLabelValues(resultLostRace).Inc()
		return
	}
	d.logger.InfoContext(ctx, "Scheduled message delivered", "message_id", msg.ID, "channel_id", msg.ChannelID)
	messagesProcessedCounter.WithLabelValues(resultSent).Inc()
}

func (d *Dispatcher) markFailed(ctx context.Context, id int64, reason string) {
	changed, err := d.messages.MarkFailed(ctx, id, reason)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to mark message failed", "message_id", id, "error", err)
		return
	}
	if !changed {
		d.logger.DebugContext(ctx, "markFailed lost the race, message no longer pending", "message_id", id)
		messagesProcessedCounter.WithLabelValues(resultLostRace).Inc()
		return
	}
	messagesProcessedCounter.WithLabelValues(resultFailed).Inc()
}
