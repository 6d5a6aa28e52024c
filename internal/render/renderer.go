package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// ErrGenerationFailed is the single error surfaced for any render
// failure. Callers substitute a fallback card; engine detail stays in
// the logs.
var ErrGenerationFailed = errors.New("image generation failed")

// Renderer rasterizes layout trees to PNG. Safe for concurrent use;
// the only shared state is the lazily fetched font.
type Renderer struct {
	fonts  *fontCache
	logger *zap.SugaredLogger
}

func NewRenderer(fontURL string, logger *zap.SugaredLogger) *Renderer {
	return &Renderer{fonts: newFontCache(fontURL), logger: logger}
}

// ResetFonts drops the cached font. Test hook only.
func (r *Renderer) ResetFonts() { r.fonts.Reset() }

// Render produces the PNG for one card.
func (r *Renderer) Render(ctx context.Context, p Params) ([]byte, error) {
	layout := BuildLayout(p)

	data, err := r.rasterize(ctx, layout, p)
	if err != nil {
		r.logger.Errorw("render failed", "title", layout.Title, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return data, nil
}

func (r *Renderer) rasterize(ctx context.Context, l Layout, p Params) ([]byte, error) {
	w, h := float64(l.Width), float64(l.Height)
	dc := gg.NewContext(l.Width, l.Height)

	// Gradient background, top-left to bottom-right.
	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, hexColor(l.Gradient.From))
	grad.AddColorStop(1, hexColor(l.Gradient.To))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	// Faint wash over the gradient, matching the card template.
	dc.SetRGBA(1, 1, 1, 0.05)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	face, err := r.fonts.face(ctx, l.FontSize)
	if err != nil {
		// Fallback face in hand; render proceeds without the real font.
		r.logger.Warnw("using fallback font face", "error", err)
	}
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(l.Title, w/2, h/2-30, 0.5, 0.5, w*0.9, 1.2, gg.AlignCenter)

	if subFace, err := r.fonts.face(ctx, subtitleFontSize); err == nil {
		dc.SetFontFace(subFace)
	}
	dc.SetRGBA(1, 1, 1, 0.9)
	dc.DrawStringAnchored(l.Subtitle, w/2, h/2+60, 0.5, 0.5)

	if err := r.drawFooter(ctx, dc, l, p); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawFooter places the optional icon+author row bottom-left and the
// company logo bottom-right.
func (r *Renderer) drawFooter(ctx context.Context, dc *gg.Context, l Layout, p Params) error {
	w, h := float64(l.Width), float64(l.Height)
	baseline := h - 64

	x := 64.0
	if l.HasIcon {
		icon, err := decodeSquare(p.IconData, iconSize)
		if err != nil {
			// Undecodable uploads are skipped, not fatal.
			r.logger.Warnw("skipping icon", "error", err)
		} else {
			cx, cy := x+iconSize/2, baseline
			dc.DrawCircle(cx, cy, iconSize/2)
			dc.Clip()
			dc.DrawImageAnchored(icon, int(cx), int(cy), 0.5, 0.5)
			dc.ResetClip()
			x += iconSize + 16
		}
	}
	if l.Author != "" {
		if face, err := r.fonts.face(ctx, authorFontSize); err == nil {
			dc.SetFontFace(face)
		}
		dc.SetRGBA(1, 1, 1, 0.95)
		dc.DrawStringAnchored(l.Author, x, baseline, 0, 0.5)
	}

	if l.HasLogo {
		logo, err := decodeLogo(p.LogoData)
		if err != nil {
			r.logger.Warnw("skipping company logo", "error", err)
		} else {
			dc.DrawImageAnchored(logo, int(w-64), int(baseline), 1, 0.5)
		}
	}
	return nil
}

// RenderFallback draws the neutral error card served when on-demand
// generation fails. It uses only built-in resources so it cannot
// itself depend on the font fetch.
func (r *Renderer) RenderFallback() ([]byte, error) {
	dc := gg.NewContext(DefaultWidth, DefaultHeight)
	dc.SetHexColor("#f5f5f5")
	dc.Clear()
	dc.SetHexColor("#333333")
	dc.DrawStringAnchored("OGP Image Generator", DefaultWidth/2, DefaultHeight/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return buf.Bytes(), nil
}

func decodeSquare(data []byte, size int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos), nil
}

func decodeLogo(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, 0, logoHeight, imaging.Lanczos), nil
}

// hexColor parses "#rrggbb". Colors are validated upstream; anything
// unexpected degrades to white instead of aborting a render.
func hexColor(s string) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.White
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
