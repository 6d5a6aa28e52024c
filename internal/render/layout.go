package render

import (
	"unicode/utf8"

	"ogp-service/internal/ogp"
)

// Canvas bounds. 1200x630 is the standard social-preview aspect ratio
// and also the hard ceiling: larger requests are clamped, never honored.
const (
	DefaultWidth  = 1200
	DefaultHeight = 630

	MaxWidth  = 1200
	MaxHeight = 630

	// Title font scale: fontSize = clamp(1000/len, MinFontSize, MaxFontSize).
	fontScaleK  = 1000
	MinFontSize = 36
	MaxFontSize = 72

	subtitleFontSize = 28
	authorFontSize   = 32
	logoHeight       = 56
	iconSize         = 48

	// Titles over the form limit are cut to 97 runes plus an ellipsis
	// to bound render cost.
	truncateAt = 97
)

// Params is the full input to one render.
type Params struct {
	Title    string
	Gradient ogp.Gradient
	Width    int
	Height   int

	// Optional decorations, already resolved to raw image bytes.
	IconData []byte
	Author   string
	LogoData []byte
}

// Layout is the computed layout tree for one card: everything the
// rasterizer needs, with no drawing state of its own.
type Layout struct {
	Width    int
	Height   int
	Title    string
	FontSize float64
	Gradient ogp.Gradient
	Subtitle string
	Author   string
	HasIcon  bool
	HasLogo  bool
}

// BuildLayout normalizes the params and computes the layout tree.
// It is a pure function; all clamping happens here so the rasterizer
// can trust its input.
func BuildLayout(p Params) Layout {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	if w > MaxWidth {
		w = MaxWidth
	}
	if h > MaxHeight {
		h = MaxHeight
	}

	title := TruncateTitle(p.Title)
	return Layout{
		Width:    w,
		Height:   h,
		Title:    title,
		FontSize: TitleFontSize(title),
		Gradient: p.Gradient,
		Subtitle: "OGP Image Generator",
		Author:   p.Author,
		HasIcon:  len(p.IconData) > 0,
		HasLogo:  len(p.LogoData) > 0,
	}
}

// TitleFontSize scales the font inversely with title length, clamped
// to [MinFontSize, MaxFontSize]. A one-character title gets the max,
// a wall of text the min.
func TitleFontSize(title string) float64 {
	n := utf8.RuneCountInString(title)
	if n < 1 {
		n = 1
	}
	size := float64(fontScaleK) / float64(n)
	if size > MaxFontSize {
		return MaxFontSize
	}
	if size < MinFontSize {
		return MinFontSize
	}
	return size
}

// TruncateTitle cuts titles longer than the form limit down to 97
// runes plus an ellipsis.
func TruncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= ogp.MaxTitleLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:truncateAt]) + "..."
}
