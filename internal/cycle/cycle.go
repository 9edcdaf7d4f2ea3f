// Package cycle runs the wake-cycle state machine: one linear pass from
// wake to deep sleep. No step is fatal; every failure selects a defined
// degraded render path, and every cycle ends with the wake timer armed.
package cycle

import (
	"context"
	"time"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/battery"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/netsession"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

type State int

const (
	StateInit State = iota
	StateBatteryCheck
	StateNetworkAttempt
	StateWeatherTime
	StateSkipToFallback
	StateResolvePayload
	StateRender
	StateSleep
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateBatteryCheck:
		return "battery-check"
	case StateNetworkAttempt:
		return "network-attempt"
	case StateWeatherTime:
		return "weather-time"
	case StateSkipToFallback:
		return "skip-to-fallback"
	case StateResolvePayload:
		return "resolve-payload"
	case StateRender:
		return "render"
	case StateSleep:
		return "sleep"
	default:
		return "INVALID"
	}
}

// Payload is the fully resolved frame content for one cycle. It is built
// exactly once, after every input has either completed or been skipped,
// and is immutable afterwards.
type Payload struct {
	TitleText          string
	WarningIconVisible bool
	TemperatureText    string
	HumidityText       string
	WeatherIcon        weather.Icon
	TimestampText      string
}

// wakeContext is the ephemeral per-cycle state. It does not survive sleep.
type wakeContext struct {
	battery    battery.Status
	connected  bool
	outcome    weather.Outcome
	timeString string
}

// Session joins and leaves the network once per cycle.
type Session interface {
	Connect(ctx context.Context) netsession.Result
}

// Fetcher retrieves current conditions as a tagged outcome.
type Fetcher interface {
	Fetch(ctx context.Context) weather.Outcome
}

// TimeSource yields the localized display timestamp, or an error when the
// time source is unavailable this cycle.
type TimeSource interface {
	SyncAndFormat(ctx context.Context) (string, error)
}

// Renderer paints one resolved payload.
type Renderer interface {
	Render(p Payload) error
}

// Sleeper arms the wake timer and suspends the device. EnterDeepSleep
// returns when the device resumes (or, on boards that reboot out of deep
// sleep, never).
type Sleeper interface {
	ArmTimerWakeup(d time.Duration) error
	EnterDeepSleep() error
}

// Report summarizes one finished cycle for telemetry.
type Report struct {
	Timestamp  string        `json:"timestamp"`
	Connected  bool          `json:"connected"`
	Outcome    string        `json:"outcome"`
	BatteryRaw int           `json:"battery_raw"`
	BatteryLow bool          `json:"battery_low"`
	TempText   string        `json:"temperature"`
	Humidity   string        `json:"humidity"`
	Icon       string        `json:"icon"`
	Duration   time.Duration `json:"duration_ns"`
}

// Reporter publishes a cycle report, best effort.
type Reporter interface {
	ReportCycle(ctx context.Context, r Report) error
}
