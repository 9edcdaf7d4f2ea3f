// Package netsession joins the wireless network at the start of a wake cycle.
// Connectivity is attempted with a bounded linear retry so the cycle always
// has an upper time bound; on give-up any partial association is torn down
// before the fallback path runs.
package netsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/retry"
)

// Link is the narrow surface consumed from the host's network stack.
type Link interface {
	// Up initiates the join. It may return before the link is usable;
	// Status is polled afterwards.
	Up(ctx context.Context) error
	Status(ctx context.Context) (bool, error)
	Down(ctx context.Context) error
}

type Result int

const (
	Connected Result = iota
	GaveUp
)

func (r Result) String() string {
	switch r {
	case Connected:
		return "connected"
	case GaveUp:
		return "gave-up"
	default:
		return "INVALID"
	}
}

var errNotConnected = errors.New("link not connected")

type Session struct {
	link        Link
	maxAttempts int
	pollDelay   time.Duration
	log         *slog.Logger
}

func New(link Link, maxAttempts int, pollDelay time.Duration, log *slog.Logger) *Session {
	return &Session{
		link:        link,
		maxAttempts: maxAttempts,
		pollDelay:   pollDelay,
		log:         log,
	}
}

// Connect initiates the join and polls link status up to maxAttempts times
// with a fixed delay. After exhausting the attempts it tears the link down
// and reports GaveUp; it never blocks beyond maxAttempts * pollDelay plus
// the join call itself.
func (s *Session) Connect(ctx context.Context) Result {
	if err := s.link.Up(ctx); err != nil {
		s.log.Warn("wifi join failed to start", "error", err)
		s.teardown(ctx)
		return GaveUp
	}

	attempt := 0
	err := retry.Attempt(ctx, s.maxAttempts, s.pollDelay, func(ctx context.Context) error {
		attempt++
		up, statusErr := s.link.Status(ctx)
		if statusErr != nil {
			return fmt.Errorf("link status: %w", statusErr)
		}
		if !up {
			return errNotConnected
		}
		return nil
	})
	if err != nil {
		s.log.Warn("wifi connect gave up", "attempts", attempt, "error", err)
		s.teardown(ctx)
		return GaveUp
	}

	s.log.Info("wifi connected", "attempts", attempt)
	return Connected
}

// Disconnect tears the link down at the end of a connected cycle.
func (s *Session) Disconnect(ctx context.Context) {
	s.teardown(ctx)
}

func (s *Session) teardown(ctx context.Context) {
	if err := s.link.Down(ctx); err != nil {
		s.log.Debug("wifi teardown", "error", err)
	}
}
