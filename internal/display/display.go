// Package display defines the narrow surface the renderer consumes from a
// panel driver, plus a frame driver that rasterizes to a 1-bit PNG for
// panels fed by an external picture pusher.
package display

import "image"

type Point struct {
	X, Y int
}

type Size struct {
	W, H int
}

// Font selects one of the driver's prepared faces.
type Font int

const (
	FontSmall Font = iota
	FontMedium
	FontLarge
)

// Driver paints one frame per wake cycle. Calls between Clear and Commit
// compose the frame; nothing is visible until Commit. PowerDown puts the
// panel in its minimum-power state before deep sleep.
type Driver interface {
	Init() error
	Clear()
	DrawText(at Point, f Font, s string)
	DrawBitmap(at Point, sz Size, img image.Image)
	DrawLine(a, b Point)
	Commit() error
	PowerDown() error
}
