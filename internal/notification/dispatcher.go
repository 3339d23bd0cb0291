package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/metrics"
	"github.com/redmonkez12/eventhub-auth/internal/token"
)

// Sender delivers one message. It is called from worker goroutines.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DefaultPushTimeout bounds how long Send waits on the queue. Send runs inside
// the request, so it stays short.
const DefaultPushTimeout = 200 * time.Millisecond

type Config struct {
	Workers     int
	MaxRetries  uint64
	RetryBase   time.Duration
	PushTimeout time.Duration
}

// Dispatcher accepts link tokens from the auth flows and delivers them in the
// background. Send never blocks on delivery and never fails the caller.
type Dispatcher struct {
	queue   Queue
	sender  Sender
	logger  *logging.Logger
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(queue Queue, sender Sender, logger *logging.Logger, m *metrics.Metrics, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}
	return &Dispatcher{
		queue:   queue,
		sender:  sender,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Send enqueues a message for destination. Session tokens are never emailed.
// The token itself is not logged.
func (d *Dispatcher) Send(ctx context.Context, destination, tok string, purpose token.Purpose) {
	if purpose == token.PurposeSession || !purpose.Valid() {
		d.logger.Error("refusing to dispatch token", "email", destination, "purpose", purpose)
		d.metrics.RecordNotification(string(purpose), metrics.ResultDropped)
		return
	}

	msg := NewMessage(destination, tok, purpose, d.now())

	// The request may finish before the push does.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.PushTimeout)
	defer cancel()

	if err := d.queue.Push(pushCtx, msg); err != nil {
		d.logger.Warn("failed to enqueue notification",
			"message_id", msg.ID,
			"email", destination,
			"purpose", purpose,
			"error", err,
		)
		d.metrics.RecordNotification(string(purpose), metrics.ResultDropped)
		return
	}

	d.logger.Debug("notification enqueued", "message_id", msg.ID, "email", destination, "purpose", purpose)
	d.metrics.RecordNotification(string(purpose), metrics.ResultEnqueued)
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}

	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}

	d.logger.Info("notification workers started", "workers", d.cfg.Workers)
}

// Stop cancels the workers and waits for them to exit. A delivery in
// progress is abandoned. The dispatcher can be started again afterwards.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()

	d.logger.Info("notification workers stopped")
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()

	logger := d.logger.With("worker", id)

	for {
		msg, err := d.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("failed to read notification queue", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.RetryBase):
			}
			continue
		}

		d.deliver(ctx, logger, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, logger *logging.Logger, msg Message) {
	logger = logger.WithFields(map[string]any{
		"message_id": msg.ID,
		"email":      msg.To,
		"purpose":    msg.Purpose,
	})

	backoff := retry.WithMaxRetries(d.cfg.MaxRetries, retry.NewExponential(d.cfg.RetryBase))

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := d.sender.Send(ctx, msg); err != nil {
			logger.Debug("delivery attempt failed", "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("failed to deliver notification", "attempts", attempts, "error", err)
		d.metrics.RecordNotification(string(msg.Purpose), metrics.ResultFailed)
		return
	}

	logger.Info("notification delivered", "attempts", attempts)
	d.metrics.RecordNotification(string(msg.Purpose), metrics.ResultSent)
}
