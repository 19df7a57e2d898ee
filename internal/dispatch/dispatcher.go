package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/MrEthical07/goAuthz/notify"
)

// Config controls pool size, buffering and send rate.
type Config struct {
	Workers       int
	BufferSize    int
	DropIfFull    bool
	RatePerSecond float64
	SendTimeout   time.Duration
}

// Dispatcher asynchronously forwards messages to a sender.
type Dispatcher struct {
	cfg       Config
	sender    notify.Sender
	limiter   *rate.Limiter
	log       zerolog.Logger
	ch        chan notify.Message
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	failed    atomic.Uint64
	sent      atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// New starts a [Dispatcher]. A nil sender discards messages.
func New(cfg Config, sender notify.Sender, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if sender == nil {
		sender = notify.NoopSender{}
	}

	limit := rate.Inf
	burst := cfg.Workers
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	d := &Dispatcher{
		cfg:     cfg,
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With().Str("component", "dispatch").Logger(),
		ch:      make(chan notify.Message, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.ch:
			d.deliver(msg)
		case <-d.done:
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		d.failed.Add(1)
		d.log.Warn().Err(err).Str("channel", string(msg.Channel)).Msg("send throttled past timeout")
		return
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.failed.Add(1)
		d.log.Error().Err(err).
			Str("channel", string(msg.Channel)).
			Str("template", msg.Template).
			Msg("notification delivery failed")
		return
	}
	d.sent.Add(1)
}

// Submit queues msg for delivery and reports whether it was accepted.
func (d *Dispatcher) Submit(ctx context.Context, msg notify.Message) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- msg:
			return true
		case <-d.done:
			return false
		default:
			d.dropped.Add(1)
			d.log.Warn().Str("channel", string(msg.Channel)).Msg("dispatch buffer full, message dropped")
			return false
		}
	}

	select {
	case d.ch <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-d.done:
		return false
	}
}

// Close stops accepting messages, drains the buffer and waits for workers.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}

func (d *Dispatcher) Sent() uint64 {
	if d == nil {
		return 0
	}
	return d.sent.Load()
}
