package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

// iconBitmap draws a weather glyph as filled black shapes on a transparent
// canvas. Glyphs are drawn oversized and scaled down by the driver, which
// keeps edges acceptable after the panel's 1-bit threshold.
func iconBitmap(icon weather.Icon, px int) image.Image {
	dc := gg.NewContext(px, px)
	dc.SetRGB(0, 0, 0)
	s := float64(px)
	dc.SetLineWidth(s * 0.05)

	switch icon {
	case weather.IconClear:
		sun(dc, s*0.5, s*0.5, s*0.2)
	case weather.IconFewClouds:
		sun(dc, s*0.35, s*0.33, s*0.15)
		cloud(dc, s*0.55, s*0.62, s*0.2)
	case weather.IconScatteredClouds:
		cloud(dc, s*0.5, s*0.5, s*0.24)
	case weather.IconBrokenClouds:
		cloud(dc, s*0.38, s*0.4, s*0.18)
		cloud(dc, s*0.6, s*0.6, s*0.22)
	case weather.IconShowerRain:
		cloud(dc, s*0.5, s*0.38, s*0.22)
		for i := 0; i < 4; i++ {
			x := s * (0.3 + 0.14*float64(i))
			drop(dc, x, s*0.66, s*0.1)
		}
	case weather.IconRain:
		cloud(dc, s*0.5, s*0.36, s*0.22)
		drop(dc, s*0.38, s*0.64, s*0.2)
		drop(dc, s*0.6, s*0.64, s*0.2)
	case weather.IconThunderstorm:
		cloud(dc, s*0.5, s*0.34, s*0.22)
		bolt(dc, s*0.5, s*0.56, s*0.34)
	case weather.IconSnow:
		flake(dc, s*0.5, s*0.5, s*0.3)
	case weather.IconMist:
		for i := 0; i < 4; i++ {
			y := s * (0.3 + 0.14*float64(i))
			dc.DrawLine(s*0.18, y, s*0.82, y)
			dc.Stroke()
		}
	}
	return dc.Image()
}

// warningBitmap is the connectivity-failure glyph: a filled triangle with a
// knocked-out exclamation mark.
func warningBitmap(px int) image.Image {
	dc := gg.NewContext(px, px)
	s := float64(px)

	dc.SetRGB(0, 0, 0)
	dc.MoveTo(s*0.5, s*0.08)
	dc.LineTo(s*0.95, s*0.92)
	dc.LineTo(s*0.05, s*0.92)
	dc.ClosePath()
	dc.Fill()

	// Knock the mark out of the fill in panel white.
	dc.SetRGB255(255, 255, 255)
	dc.DrawRectangle(s*0.46, s*0.32, s*0.08, s*0.34)
	dc.Fill()
	dc.DrawCircle(s*0.5, s*0.78, s*0.05)
	dc.Fill()
	return dc.Image()
}

func sun(dc *gg.Context, cx, cy, r float64) {
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	for i := 0; i < 8; i++ {
		a := float64(i) * gg.Radians(45)
		x1 := cx + (r*1.3)*math.Cos(a)
		y1 := cy + (r*1.3)*math.Sin(a)
		x2 := cx + (r*1.8)*math.Cos(a)
		y2 := cy + (r*1.8)*math.Sin(a)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
}

func cloud(dc *gg.Context, cx, cy, r float64) {
	dc.DrawCircle(cx-r*0.8, cy, r*0.7)
	dc.DrawCircle(cx+r*0.2, cy-r*0.5, r*0.9)
	dc.DrawCircle(cx+r*0.9, cy, r*0.65)
	dc.DrawRectangle(cx-r*0.8, cy, r*1.7, r*0.7)
	dc.Fill()
}

func drop(dc *gg.Context, x, y, length float64) {
	dc.DrawLine(x, y, x-length*0.3, y+length)
	dc.Stroke()
}

func bolt(dc *gg.Context, cx, cy, h float64) {
	dc.MoveTo(cx+h*0.1, cy)
	dc.LineTo(cx-h*0.25, cy+h*0.55)
	dc.LineTo(cx-h*0.02, cy+h*0.55)
	dc.LineTo(cx-h*0.15, cy+h)
	dc.LineTo(cx+h*0.3, cy+h*0.4)
	dc.LineTo(cx+h*0.05, cy+h*0.4)
	dc.LineTo(cx+h*0.3, cy)
	dc.ClosePath()
	dc.Fill()
}

func flake(dc *gg.Context, cx, cy, r float64) {
	for i := 0; i < 6; i++ {
		a := float64(i) * gg.Radians(60)
		x := cx + r*math.Cos(a)
		y := cy + r*math.Sin(a)
		dc.DrawLine(cx, cy, x, y)
		dc.Stroke()
		// Side ticks on each arm.
		tx := cx + r*0.6*math.Cos(a)
		ty := cy + r*0.6*math.Sin(a)
		dc.DrawLine(tx, ty, tx+r*0.25*math.Cos(a+gg.Radians(50)), ty+r*0.25*math.Sin(a+gg.Radians(50)))
		dc.DrawLine(tx, ty, tx+r*0.25*math.Cos(a-gg.Radians(50)), ty+r*0.25*math.Sin(a-gg.Radians(50)))
		dc.Stroke()
	}
}
