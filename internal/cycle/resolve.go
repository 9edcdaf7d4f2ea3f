package cycle

import (
	"fmt"
	"time"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

// On-display failure markers. The fetch boundary reports tagged outcomes;
// the literal text a failure turns into is decided here and nowhere else.
const (
	markerNetworkFailure = "ERR"
	markerParseFailure   = "!DATA"
	markerNotAvailable   = "N/A"
)

// LowBatteryTitle replaces the configured title whenever this cycle's
// battery sample classified low, independent of connectivity.
const LowBatteryTitle = "LOW BATTERY - REPLACE"

type Options struct {
	Title        string
	UnitSuffix   string
	WakeInterval time.Duration
}

// resolvePayload maps the cycle's inputs onto frame content. It is a pure
// function: no I/O, no clock, no mutation of its arguments.
//
// prev/populated carry the persisted reading; populated is false while the
// store still holds its never-written sentinel.
func resolvePayload(prev weather.Reading, populated bool, wc wakeContext, opts Options) Payload {
	p := Payload{
		TitleText:          opts.Title,
		WarningIconVisible: !wc.connected,
		TimestampText:      wc.timeString,
	}
	if wc.battery.Low {
		p.TitleText = LowBatteryTitle
	}

	switch {
	case wc.connected && wc.outcome.Kind == weather.OutcomeSuccess:
		r := wc.outcome.Reading
		p.TemperatureText = formatTemp(r.TempF, opts.UnitSuffix)
		p.HumidityText = formatHumidity(r.HumidityPct)
		p.WeatherIcon = r.Icon

	case wc.connected && wc.outcome.Kind == weather.OutcomeNetworkFailure:
		p.TemperatureText = markerNetworkFailure
		p.HumidityText = markerNetworkFailure
		p.WeatherIcon = lastIconOrDefault(prev, populated)

	case wc.connected:
		p.TemperatureText = markerParseFailure
		p.HumidityText = markerParseFailure
		p.WeatherIcon = lastIconOrDefault(prev, populated)

	case populated:
		// Never connected this cycle: the one path where displayed numbers
		// are reconstructed from prior state instead of current input.
		p.TemperatureText = formatTemp(prev.TempF, opts.UnitSuffix)
		p.HumidityText = formatHumidity(prev.HumidityPct)
		p.WeatherIcon = prev.Icon

	default:
		p.TemperatureText = markerNotAvailable
		p.HumidityText = markerNotAvailable
		p.WeatherIcon = weather.IconClear
	}
	return p
}

func lastIconOrDefault(prev weather.Reading, populated bool) weather.Icon {
	if populated {
		return prev.Icon
	}
	return weather.IconClear
}

func formatTemp(t float64, suffix string) string {
	return fmt.Sprintf("%.1f %s", t, suffix)
}

func formatHumidity(h int) string {
	return fmt.Sprintf("%d%%", h)
}
