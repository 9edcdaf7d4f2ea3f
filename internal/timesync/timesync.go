// Package timesync obtains wall-clock time from a network time source once
// per wake cycle and localizes it with a POSIX timezone rule. The device
// has no battery-backed clock worth trusting, so a failed sync leaves the
// previously displayed timestamp in place rather than showing a wrong one.
package timesync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/ntp"
)

// StampFormat is the on-display timestamp layout.
const StampFormat = "2006/01/02-15:04:05"

// Placeholder is shown until the first successful sync after a full power
// cycle.
const Placeholder = "----/--/-- --:--:--"

// Source yields the current UTC instant. Implementations bound their own
// wait internally; a source that cannot answer returns an error.
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// NTPSource queries an NTP server with zero UTC offset.
type NTPSource struct {
	Server  string
	Timeout time.Duration
}

func (s *NTPSource) Now(_ context.Context) (time.Time, error) {
	resp, err := ntp.QueryWithOptions(s.Server, ntp.QueryOptions{Timeout: s.Timeout})
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp query %s: %w", s.Server, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("ntp response invalid: %w", err)
	}
	return time.Now().Add(resp.ClockOffset).UTC(), nil
}

type Synchronizer struct {
	src  Source
	rule Rule
	log  *slog.Logger
}

func NewSynchronizer(src Source, rule Rule, log *slog.Logger) *Synchronizer {
	return &Synchronizer{src: src, rule: rule, log: log}
}

// SyncAndFormat returns the localized current time as a display string, or
// an error when the time source is unavailable.
func (s *Synchronizer) SyncAndFormat(ctx context.Context) (string, error) {
	t, err := s.src.Now(ctx)
	if err != nil {
		return "", err
	}
	local := s.rule.Localize(t)
	stamp := local.Format(StampFormat)
	s.log.Info("time synced", "stamp", stamp)
	return stamp, nil
}
