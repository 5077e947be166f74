package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harun/oracle/internal/observability"
	"github.com/harun/oracle/pkg/session"
	"github.com/rs/zerolog"
)

// DefaultInterval is the wait between polls.
const DefaultInterval = time.Second

// Source is the read side of the session store.
type Source interface {
	Get(id string) (*session.Record, error)
	Tail(id string, offset int64) ([]byte, error)
}

// Result describes how an attach ended.
type Result struct {
	// Record is the last record observed. It is terminal unless Vanished.
	Record     *session.Record
	Vanished   bool
	Bytes      int64
	Iterations int
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the wait between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithWaker replaces the timer based wait.
func WithWaker(w Waker) Option {
	return func(p *Poller) {
		if w != nil {
			p.waker = w
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger.With().Str("component", "poller").Logger()
	}
}

// Poller is a client side read loop over one session.
type Poller struct {
	source   Source
	interval time.Duration
	waker    Waker
	logger   zerolog.Logger
}

// New creates a poller over source.
func New(source Source, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultInterval,
		waker:    TimerWaker{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach streams the transcript of id to out until the session is terminal,
// the record disappears, or ctx is done. It returns session.ErrNotFound when
// the record does not exist at the start.
func (p *Poller) Attach(ctx context.Context, id string, out io.Writer) (*Result, error) {
	first, err := p.source.Get(id)
	if err != nil {
		return nil, err
	}

	res := &Result{Record: first}
	logger := p.logger.With().Str("session_id", id).Logger()

	printNew := func() error {
		chunk, err := p.source.Tail(id, res.Bytes)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if _, err := out.Write(chunk); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
		res.Bytes += int64(len(chunk))
		return nil
	}

	if err := printNew(); err != nil {
		return res, err
	}

	for {
		res.Iterations++
		observability.RecordPollIteration()

		latest, err := p.source.Get(id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				logger.Debug().Msg("Session disappeared while attached")
				res.Vanished = true
				return res, nil
			}
			return res, err
		}
		res.Record = latest

		if latest.Status.IsTerminal() {
			if err := printNew(); err != nil {
				return res, err
			}
			logger.Debug().Str("status", string(latest.Status)).Int("iterations", res.Iterations).Msg("Session settled")
			return res, nil
		}

		if err := p.waker.Wait(ctx, p.interval); err != nil {
			return res, err
		}
		if err := printNew(); err != nil {
			return res, err
		}
	}
}
