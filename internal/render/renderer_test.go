package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ogp-service/internal/ogp"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	logger := zap.NewNop().Sugar()
	// empty font URL: the fallback face is used, no network involved
	return NewRenderer("", logger)
}

func decodePNG(t *testing.T, data []byte) image.Config {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	return cfg
}

func TestRenderProducesPNG(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render(context.Background(), Params{
		Title:    "Hello OGP",
		Gradient: ogp.Presets["sunset"],
	})
	require.NoError(t, err)

	cfg := decodePNG(t, data)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
}

func TestRenderWithDecorations(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render(context.Background(), Params{
		Title:    "Decorated card",
		Gradient: ogp.Presets["forest"],
		IconData: tinyPNG(t, 10, 10),
		Author:   "someone",
		LogoData: tinyPNG(t, 80, 20),
	})
	require.NoError(t, err)
	decodePNG(t, data)
}

func TestRenderSkipsUndecodableImages(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render(context.Background(), Params{
		Title:    "Bad icon",
		Gradient: ogp.Presets["fire"],
		IconData: []byte("this is not an image"),
		LogoData: []byte{0xde, 0xad},
	})
	require.NoError(t, err)
	decodePNG(t, data)
}

func TestRenderClampsOversizedCanvas(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.Render(context.Background(), Params{
		Title:    "big",
		Gradient: ogp.DefaultGradient,
		Width:    5000,
		Height:   5000,
	})
	require.NoError(t, err)

	cfg := decodePNG(t, data)
	assert.Equal(t, MaxWidth, cfg.Width)
	assert.Equal(t, MaxHeight, cfg.Height)
}

func TestRenderFallbackCard(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.RenderFallback()
	require.NoError(t, err)

	cfg := decodePNG(t, data)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
}

func TestResetFonts(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(context.Background(), Params{Title: "one", Gradient: ogp.DefaultGradient})
	require.NoError(t, err)

	r.ResetFonts()

	_, err = r.Render(context.Background(), Params{Title: "two", Gradient: ogp.DefaultGradient})
	require.NoError(t, err)
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
