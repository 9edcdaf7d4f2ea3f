package weather

import "strings"

// Icon selects one of the panel's weather glyphs. The endpoint's day/night
// variants of a condition family collapse onto the same glyph; the panel
// does not distinguish day from night.
type Icon int

const (
	IconClear Icon = iota
	IconFewClouds
	IconScatteredClouds
	IconBrokenClouds
	IconShowerRain
	IconRain
	IconThunderstorm
	IconSnow
	IconMist
)

func (i Icon) String() string {
	switch i {
	case IconClear:
		return "clear"
	case IconFewClouds:
		return "few-clouds"
	case IconScatteredClouds:
		return "scattered-clouds"
	case IconBrokenClouds:
		return "broken-clouds"
	case IconShowerRain:
		return "shower-rain"
	case IconRain:
		return "rain"
	case IconThunderstorm:
		return "thunderstorm"
	case IconSnow:
		return "snow"
	case IconMist:
		return "mist"
	default:
		return "INVALID"
	}
}

// ParseIcon is the inverse of String. It reports false for unknown names.
func ParseIcon(s string) (Icon, bool) {
	for i := IconClear; i <= IconMist; i++ {
		if i.String() == s {
			return i, true
		}
	}
	return IconClear, false
}

var iconFamilies = map[string]Icon{
	"01": IconClear,
	"02": IconFewClouds,
	"03": IconScatteredClouds,
	"04": IconBrokenClouds,
	"09": IconShowerRain,
	"10": IconRain,
	"11": IconThunderstorm,
	"13": IconSnow,
	"50": IconMist,
}

// IconForCode maps an endpoint condition code ("04n", "01d", ...) to a glyph.
// Codes outside the documented families fall back to the clear glyph; a
// lossy default beats an error marker for a purely decorative element.
func IconForCode(code string) Icon {
	family := strings.TrimSuffix(strings.TrimSuffix(code, "d"), "n")
	if icon, ok := iconFamilies[family]; ok {
		return icon
	}
	return IconClear
}
