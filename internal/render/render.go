// Package render turns one resolved payload into driver calls: title,
// warning glyph, separator, weather icon, readings, timestamp. Layout is
// sized for a small landscape panel but scales with the configured frame.
package render

import (
	"fmt"
	"log/slog"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/cycle"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/display"
)

type Renderer struct {
	drv    display.Driver
	width  int
	height int
	log    *slog.Logger
}

func New(drv display.Driver, width, height int, log *slog.Logger) *Renderer {
	return &Renderer{drv: drv, width: width, height: height, log: log}
}

func (r *Renderer) Render(p cycle.Payload) error {
	if err := r.drv.Init(); err != nil {
		return fmt.Errorf("display init: %w", err)
	}
	r.drv.Clear()

	headerH := r.height / 5
	iconPx := r.height / 2

	r.drv.DrawText(display.Point{X: 6, Y: 4}, display.FontMedium, p.TitleText)
	if p.WarningIconVisible {
		sz := headerH - 4
		r.drv.DrawBitmap(
			display.Point{X: r.width - sz - 4, Y: 2},
			display.Size{W: sz, H: sz},
			warningBitmap(64),
		)
	}
	r.drv.DrawLine(display.Point{X: 0, Y: headerH}, display.Point{X: r.width, Y: headerH})

	r.drv.DrawBitmap(
		display.Point{X: 10, Y: headerH + 8},
		display.Size{W: iconPx, H: iconPx},
		iconBitmap(p.WeatherIcon, 128),
	)

	readingsX := 10 + iconPx + 16
	r.drv.DrawText(display.Point{X: readingsX, Y: headerH + 10}, display.FontLarge, p.TemperatureText)
	r.drv.DrawText(display.Point{X: readingsX, Y: headerH + 10 + r.height/3}, display.FontMedium, p.HumidityText)

	r.drv.DrawText(display.Point{X: 6, Y: r.height - 18}, display.FontSmall, p.TimestampText)

	if err := r.drv.Commit(); err != nil {
		return fmt.Errorf("display commit: %w", err)
	}
	if err := r.drv.PowerDown(); err != nil {
		return fmt.Errorf("display power down: %w", err)
	}
	r.log.Debug("frame rendered",
		"title", p.TitleText,
		"icon", p.WeatherIcon.String(),
		"warning", p.WarningIconVisible,
	)
	return nil
}
