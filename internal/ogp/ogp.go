package ogp

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLen is the longest title accepted from the form.
	MaxTitleLen = 100

	// RetentionSeconds is how long a record (and its blobs) live.
	RetentionSeconds = 31536000 // 1 year
)

var (
	ErrTitleRequired  = errors.New("title is required")
	ErrTitleTooLong   = fmt.Errorf("title must be %d characters or fewer", MaxTitleLen)
	ErrUnknownPreset  = errors.New("unknown gradient preset")
	ErrInvalidColor   = errors.New("gradient colors must be 6-digit hex codes like #ff7e5f")
	ErrGradientNeeded = errors.New("a gradient preset or a custom color pair is required")
)

// Gradient is a two-stop linear gradient, rendered top-left to bottom-right.
type Gradient struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Presets offered by the form. The literal color pairs are part of the
// public contract: a stored record carries the pair, not the preset name.
var Presets = map[string]Gradient{
	"sunset": {From: "#ff7e5f", To: "#feb47b"},
	"ocean":  {From: "#667eea", To: "#764ba2"},
	"forest": {From: "#11998e", To: "#38ef7d"},
	"purple": {From: "#8360c3", To: "#2ebf91"},
	"fire":   {From: "#ff416c", To: "#ff4b2b"},
}

// DefaultGradient is used when rendering the fallback card.
var DefaultGradient = Presets["ocean"]

// RefKind distinguishes how an ImageRef is resolved.
type RefKind string

const (
	RefURL  RefKind = "url"
	RefBlob RefKind = "blob"
)

// ImageRef points at an icon or logo image: either an absolute URL
// supplied by the user or a blob-store key from an upload. The kind is
// fixed at write time so readers never have to guess from string shape.
type ImageRef struct {
	Kind RefKind `json:"kind"`
	Ref  string  `json:"ref"`
}

func URLRef(u string) *ImageRef  { return &ImageRef{Kind: RefURL, Ref: u} }
func BlobRef(k string) *ImageRef { return &ImageRef{Kind: RefBlob, Ref: k} }

func (r *ImageRef) IsZero() bool { return r == nil || r.Ref == "" }

// Record is the stored metadata for one generated image.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Gradient    Gradient  `json:"gradient"`
	Icon        *ImageRef `json:"icon,omitempty"`
	Author      string    `json:"author,omitempty"`
	CompanyLogo *ImageRef `json:"companyLogo,omitempty"`
	BlobKey     string    `json:"key,omitempty"` // pre-rendered PNG, empty when rendering on demand
	URL         string    `json:"url"`
	CreatedAt   string    `json:"createdAt"`
}

// Stamp sets the server-side creation time. User input never reaches it.
func (r *Record) Stamp(now time.Time) {
	r.CreatedAt = now.UTC().Format(time.RFC3339)
}

// NormalizeTitle trims the title and enforces the length bound.
func NormalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(t) > MaxTitleLen {
		return "", ErrTitleTooLong
	}
	return t, nil
}

// ResolveGradient picks the preset when named, otherwise validates the
// custom pair. Preset and custom colors are mutually exclusive on the
// form; the preset wins when both arrive.
func ResolveGradient(preset, from, to string) (Gradient, error) {
	if preset != "" {
		g, ok := Presets[preset]
		if !ok {
			return Gradient{}, ErrUnknownPreset
		}
		return g, nil
	}
	if from == "" && to == "" {
		return Gradient{}, ErrGradientNeeded
	}
	if !IsHexColor(from) || !IsHexColor(to) {
		return Gradient{}, ErrInvalidColor
	}
	return Gradient{From: strings.ToLower(from), To: strings.ToLower(to)}, nil
}

// IsHexColor reports whether s is "#" followed by exactly 6 hex digits.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
