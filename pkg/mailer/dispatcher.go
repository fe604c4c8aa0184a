package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher delivers messages asynchronously with a bounded per-message
// timeout. Delivery failures are logged and never propagated to the caller:
// registration and password-reset flows must succeed even when email is down.
type Dispatcher struct {
	mailer  Mailer
	workers int
	timeout time.Duration
	retries int
	logger  *zap.Logger

	queue   chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// DispatcherConfig tunes the dispatch worker pool.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	Timeout    time.Duration
	Retries    int
}

// NewDispatcher wraps a mailer with a small worker pool.
func NewDispatcher(m Mailer, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		mailer:  m,
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		logger:  logger,
		queue:   make(chan Message, cfg.BufferSize),
	}
}

// Start launches the worker pool. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
}

// Stop cancels workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch enqueues a message without blocking the caller. A full queue
// drops the message with a log line rather than stalling the request.
func (d *Dispatcher) Dispatch(msg Message) {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		d.logger.Warn("mail dispatcher not started, dropping message",
			zap.String("kind", string(msg.Kind)), zap.String("recipient", msg.Recipient))
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message",
			zap.String("kind", string(msg.Kind)), zap.String("recipient", msg.Recipient))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.queue:
			d.deliver(msg)
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		err = d.mailer.Send(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
	d.logger.Error("mail delivery failed",
		zap.String("kind", string(msg.Kind)),
		zap.String("recipient", msg.Recipient),
		zap.Error(err))
}
