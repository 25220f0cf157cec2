// Package watermark stamps uploads with a faint per-call marker so repeated
// uploads of the same source image never produce identical bytes.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"sync/atomic"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/d60-Lab/social-publisher/internal/metrics"
)

var ErrTooLarge = errors.New("watermark: image exceeds pixel limit")

// Result carries either re-encoded JPEG bytes (Applied) or the untouched
// input with the reason in Err. Callers upload Data in both cases.
type Result struct {
	Data    []byte
	Marker  string
	Applied bool
	Err     error
}

type Watermarker struct {
	quality   int
	maxPixels int
	seq       atomic.Uint64
	now       func() time.Time
	metrics   *metrics.Metrics
}

func New(quality, maxPixels int, m *metrics.Metrics) *Watermarker {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Watermarker{quality: quality, maxPixels: maxPixels, now: time.Now, metrics: m}
}

// Apply never fails: any decode, size or encode problem yields a passthrough
// Result holding src unchanged.
func (w *Watermarker) Apply(src []byte) Result {
	res := w.apply(src)
	w.metrics.Watermark(res.Applied)
	return res
}

func (w *Watermarker) apply(src []byte) Result {
	passthrough := func(err error) Result { return Result{Data: src, Err: err} }

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return passthrough(fmt.Errorf("watermark: decode config: %w", err))
	}
	if w.maxPixels > 0 && cfg.Width*cfg.Height > w.maxPixels {
		return passthrough(ErrTooLarge)
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return passthrough(fmt.Errorf("watermark: decode: %w", err))
	}

	// Flatten onto white: JPEG has no alpha channel.
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)

	now := w.now()
	seq := w.seq.Add(1)
	label := fmt.Sprintf("%06d", now.Unix()%1_000_000)
	marker := fmt.Sprintf("%s.%09d.%d", label, now.Nanosecond(), seq)
	stamp(canvas, label)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: w.quality}); err != nil {
		return passthrough(fmt.Errorf("watermark: encode: %w", err))
	}
	return Result{Data: withComment(out.Bytes(), marker), Marker: marker, Applied: true}
}

// stamp draws label in the bottom-right corner a few luminance steps away
// from the local background.
func stamp(dst *image.RGBA, label string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Face: face}
	width := d.MeasureString(label).Ceil()
	b := dst.Bounds()
	x := b.Max.X - width - 4
	if x < b.Min.X {
		x = b.Min.X
	}
	y := b.Max.Y - 3
	region := image.Rect(x, y-face.Ascent, x+width, y+face.Descent).Intersect(b)

	lum := averageLuma(dst, region)
	if lum > 127 {
		lum -= 8
	} else {
		lum += 8
	}
	d.Src = image.NewUniform(color.Gray{Y: lum})
	d.Dot = fixed.P(x, y)
	d.DrawString(label)
}

func averageLuma(img *image.RGBA, r image.Rectangle) uint8 {
	if r.Empty() {
		return 255
	}
	var sum, n uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g := color.GrayModel.Convert(img.RGBAAt(x, y)).(color.Gray)
			sum += uint64(g.Y)
			n++
		}
	}
	return uint8(sum / n)
}

// withComment inserts a JPEG COM segment right after SOI. The pixels of two
// stamps taken within the same second can match; the comment never does.
func withComment(jpg []byte, comment string) []byte {
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		return jpg
	}
	payload := []byte(comment)
	if len(payload) > 0xFFFF-2 {
		payload = payload[:0xFFFF-2]
	}
	size := len(payload) + 2
	out := make([]byte, 0, len(jpg)+size+2)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xFE, byte(size>>8), byte(size))
	out = append(out, payload...)
	return append(out, jpg[2:]...)
}
