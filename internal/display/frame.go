package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FrameDriver rasterizes driver calls with gg and commits the finished
// frame as a black/white PNG, the format a panel picture pusher consumes.
type FrameDriver struct {
	width   int
	height  int
	outPath string
	faces   map[Font]font.Face
	dc      *gg.Context
	log     *slog.Logger
}

func NewFrameDriver(width, height int, outPath, fontPath string, log *slog.Logger) (*FrameDriver, error) {
	ttf := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		ttf = b
	}
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	faces := map[Font]font.Face{
		FontSmall:  truetype.NewFace(parsed, &truetype.Options{Size: 11}),
		FontMedium: truetype.NewFace(parsed, &truetype.Options{Size: 15}),
		FontLarge:  truetype.NewFace(parsed, &truetype.Options{Size: 26}),
	}

	return &FrameDriver{
		width:   width,
		height:  height,
		outPath: outPath,
		faces:   faces,
		log:     log,
	}, nil
}

func (d *FrameDriver) Init() error {
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.dc = gg.NewContextForRGBA(img)
	d.Clear()
	return nil
}

func (d *FrameDriver) Clear() {
	d.dc.SetRGB(1, 1, 1)
	d.dc.DrawRectangle(0, 0, float64(d.width), float64(d.height))
	d.dc.Fill()
}

func (d *FrameDriver) DrawText(at Point, f Font, s string) {
	face, ok := d.faces[f]
	if !ok {
		face = d.faces[FontMedium]
	}
	d.dc.SetFontFace(face)
	d.dc.SetRGB(0, 0, 0)
	_, h := d.dc.MeasureString(s)
	d.dc.DrawString(s, float64(at.X), float64(at.Y)+h)
}

func (d *FrameDriver) DrawBitmap(at Point, sz Size, img image.Image) {
	scaled := image.NewRGBA(image.Rect(0, 0, sz.W, sz.H))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
	d.dc.DrawImage(scaled, at.X, at.Y)
}

func (d *FrameDriver) DrawLine(a, b Point) {
	d.dc.SetRGB(0, 0, 0)
	d.dc.SetLineWidth(1)
	d.dc.DrawLine(float64(a.X), float64(a.Y), float64(b.X), float64(b.Y))
	d.dc.Stroke()
}

// Commit thresholds the frame to pure black/white and writes it out. The
// panel is bistable; there are no greys to preserve.
func (d *FrameDriver) Commit() error {
	src := d.dc.Image()
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if g.Y < 128 {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	f, err := os.Create(d.outPath)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	if err := png.Encode(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close frame: %w", err)
	}
	d.log.Info("frame committed", "path", d.outPath, "size", fmt.Sprintf("%dx%d", d.width, d.height))
	return nil
}

func (d *FrameDriver) PowerDown() error {
	// The physical panel's low-power transition belongs to the picture
	// pusher; the frame file needs nothing.
	d.log.Debug("display powered down")
	return nil
}
