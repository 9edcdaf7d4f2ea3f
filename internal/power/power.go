// Package power implements the timed-sleep transition that ends every wake
// cycle. The Timer sleeper idles in-process (dev); the Rtcwake sleeper
// suspends the host through rtcwake and returns when the RTC wakes it.
package power

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Timer waits out the wake interval without leaving the process.
type Timer struct {
	ctx   context.Context
	log   *slog.Logger
	armed time.Duration
}

func NewTimer(ctx context.Context, log *slog.Logger) *Timer {
	return &Timer{ctx: ctx, log: log}
}

func (t *Timer) ArmTimerWakeup(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("wake interval must be positive, got %v", d)
	}
	t.armed = d
	return nil
}

func (t *Timer) EnterDeepSleep() error {
	t.log.Info("entering sleep", "interval", t.armed)
	select {
	case <-t.ctx.Done():
		return t.ctx.Err()
	case <-time.After(t.armed):
		return nil
	}
}

// Rtcwake suspends the machine with a configured rtcwake command template;
// {seconds} is replaced with the armed interval. The command returns after
// the RTC alarm resumes the host, so EnterDeepSleep behaves like a very
// deep blocking sleep.
type Rtcwake struct {
	Cmd string

	ctx   context.Context
	log   *slog.Logger
	armed time.Duration
}

func NewRtcwake(ctx context.Context, cmd string, log *slog.Logger) *Rtcwake {
	return &Rtcwake{Cmd: cmd, ctx: ctx, log: log}
}

func (r *Rtcwake) ArmTimerWakeup(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("wake interval must be positive, got %v", d)
	}
	r.armed = d
	return nil
}

func (r *Rtcwake) EnterDeepSleep() error {
	args, err := shlex.Split(r.Cmd)
	if err != nil {
		return fmt.Errorf("parse rtcwake command %q: %w", r.Cmd, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("empty rtcwake command")
	}
	seconds := strconv.Itoa(int(r.armed.Round(time.Second) / time.Second))
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{seconds}", seconds)
	}

	r.log.Info("entering deep sleep", "interval", r.armed, "cmd", strings.Join(args, " "))
	cmd := exec.CommandContext(r.ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", args[0], err, strings.TrimSpace(string(out)))
	}
	r.log.Info("resumed from deep sleep")
	return nil
}
