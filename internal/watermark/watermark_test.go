package watermark

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestApplyProducesJPEG(t *testing.T) {
	src := pngFixture(t, 120, 80)
	res := New(95, 0, nil).Apply(src)

	require.True(t, res.Applied)
	require.NoError(t, res.Err)
	assert.NotEmpty(t, res.Marker)
	assert.NotEqual(t, src, res.Data)

	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())
	assert.True(t, bytes.Contains(res.Data[:64], []byte(res.Marker)))
}

func TestApplyTwiceDiffers(t *testing.T) {
	src := pngFixture(t, 64, 64)
	w := New(95, 0, nil)
	fixed := time.Unix(1_700_000_000, 0)
	w.now = func() time.Time { return fixed }

	first := w.Apply(src)
	second := w.Apply(src)
	require.True(t, first.Applied)
	require.True(t, second.Applied)
	assert.NotEqual(t, first.Data, second.Data)
	assert.NotEqual(t, first.Marker, second.Marker)
}

func TestApplyAcrossTicksDiffers(t *testing.T) {
	src := pngFixture(t, 64, 64)
	w := New(95, 0, nil)
	at := time.Unix(1_700_000_000, 0)
	w.now = func() time.Time { return at }
	first := w.Apply(src)
	at = at.Add(time.Second)
	second := w.Apply(src)

	assert.NotEqual(t, first.Data, second.Data)
}

func TestApplyMalformedPassthrough(t *testing.T) {
	src := []byte("definitely not an image")
	res := New(95, 0, nil).Apply(src)

	assert.False(t, res.Applied)
	assert.Error(t, res.Err)
	assert.Equal(t, src, res.Data)
}

func TestApplyOversizedPassthrough(t *testing.T) {
	src := pngFixture(t, 50, 50)
	res := New(95, 100, nil).Apply(src)

	assert.False(t, res.Applied)
	assert.ErrorIs(t, res.Err, ErrTooLarge)
	assert.Equal(t, src, res.Data)
}

func TestApplyTinyImage(t *testing.T) {
	res := New(90, 0, nil).Apply(pngFixture(t, 3, 3))
	require.True(t, res.Applied)
	_, err := jpeg.Decode(bytes.NewReader(res.Data))
	assert.NoError(t, err)
}

func TestWithCommentRequiresSOI(t *testing.T) {
	in := []byte{0x00, 0x01, 0x02}
	assert.Equal(t, in, withComment(in, "x"))

	out := withComment([]byte{0xFF, 0xD8, 0xFF, 0xD9}, "ab")
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xFE, 0x00, 0x04, 'a', 'b', 0xFF, 0xD9}, out)
}
