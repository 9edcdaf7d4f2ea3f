package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/battery"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/netsession"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/store"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/timesync"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

// Deps are the collaborators one cycle sequences. Reporter may be nil;
// everything else is required.
type Deps struct {
	Battery  battery.Sampler
	Session  Session
	Fetcher  Fetcher
	Clock    TimeSource
	Renderer Renderer
	Store    store.Store
	Sleeper  Sleeper
	Reporter Reporter
}

type Orchestrator struct {
	deps Deps
	opts Options
	log  *slog.Logger

	// lastStamp is the previously displayed timestamp, kept so a failed
	// sync shows the last obtained time instead of a wrong one. It lives
	// in process memory only: boards that reboot out of deep sleep come
	// back with the placeholder.
	lastStamp string
}

func New(deps Deps, opts Options, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		deps:      deps,
		opts:      opts,
		log:       log,
		lastStamp: timesync.Placeholder,
	}
}

// Run executes exactly one wake cycle and returns once the device resumes
// from sleep. The only error it can return is a failure to arm the wake
// timer or enter sleep; everything before that degrades in place.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	var wc wakeContext

	// Battery first: its result must not depend on network side effects,
	// and a low classification has to survive any later failure.
	o.transition(StateInit, StateBatteryCheck)
	st, err := o.deps.Battery.Sample(ctx)
	if err != nil {
		o.log.Warn("battery sample failed", "error", err)
	} else {
		wc.battery = st
	}

	o.transition(StateBatteryCheck, StateNetworkAttempt)
	wc.connected = o.deps.Session.Connect(ctx) == netsession.Connected

	wc.timeString = o.lastStamp
	if wc.connected {
		o.transition(StateNetworkAttempt, StateWeatherTime)
		// Weather before time: arbitrary but fixed order.
		wc.outcome = o.deps.Fetcher.Fetch(ctx)
		if stamp, syncErr := o.deps.Clock.SyncAndFormat(ctx); syncErr != nil {
			o.log.Warn("time sync unavailable, keeping previous stamp",
				"stamp", o.lastStamp, "error", syncErr)
		} else {
			wc.timeString = stamp
			o.lastStamp = stamp
		}
		o.transition(StateWeatherTime, StateResolvePayload)
	} else {
		o.transition(StateNetworkAttempt, StateSkipToFallback)
		o.transition(StateSkipToFallback, StateResolvePayload)
	}

	prev, populated, err := o.deps.Store.Load()
	if err != nil {
		o.log.Error("store load failed", "error", err)
		populated = false
	}

	payload := resolvePayload(prev, populated, wc, o.opts)

	if wc.connected && wc.outcome.Kind == weather.OutcomeSuccess {
		if err := o.deps.Store.Save(wc.outcome.Reading); err != nil {
			o.log.Error("store save failed", "error", err)
		}
	}

	o.transition(StateResolvePayload, StateRender)
	if err := o.deps.Renderer.Render(payload); err != nil {
		o.log.Error("render failed", "error", err)
	}

	o.report(ctx, wc, payload, start)

	o.transition(StateRender, StateSleep)
	if err := o.deps.Sleeper.ArmTimerWakeup(o.opts.WakeInterval); err != nil {
		return fmt.Errorf("arm wake timer: %w", err)
	}
	return o.deps.Sleeper.EnterDeepSleep()
}

// report publishes the cycle summary when a reporter is wired and the
// network is up. A failed publish is logged and forgotten; telemetry never
// delays the sleep transition.
func (o *Orchestrator) report(ctx context.Context, wc wakeContext, p Payload, start time.Time) {
	if o.deps.Reporter == nil || !wc.connected {
		return
	}
	r := Report{
		Timestamp:  wc.timeString,
		Connected:  wc.connected,
		Outcome:    wc.outcome.Kind.String(),
		BatteryRaw: wc.battery.Raw,
		BatteryLow: wc.battery.Low,
		TempText:   p.TemperatureText,
		Humidity:   p.HumidityText,
		Icon:       p.WeatherIcon.String(),
		Duration:   time.Since(start),
	}
	if err := o.deps.Reporter.ReportCycle(ctx, r); err != nil {
		o.log.Warn("cycle report failed", "error", err)
	}
}

func (o *Orchestrator) transition(from, to State) {
	o.log.Debug("state transition", "from", from.String(), "to", to.String())
}
