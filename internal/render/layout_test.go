package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ogp-service/internal/ogp"
)

func TestTitleFontSizeClamping(t *testing.T) {
	// a single character gets the maximum size
	assert.Equal(t, float64(MaxFontSize), TitleFontSize("a"))

	// a wall of text gets the minimum
	assert.Equal(t, float64(MinFontSize), TitleFontSize(strings.Repeat("a", 1000)))

	// between the bounds the scale is k/len
	assert.InDelta(t, 50.0, TitleFontSize(strings.Repeat("a", 20)), 0.001)

	// longer titles never get a larger font
	prev := TitleFontSize("a")
	for n := 2; n <= 200; n += 7 {
		cur := TitleFontSize(strings.Repeat("a", n))
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, float64(MinFontSize))
		assert.LessOrEqual(t, cur, float64(MaxFontSize))
		prev = cur
	}
}

func TestTruncateTitle(t *testing.T) {
	short := strings.Repeat("x", 100)
	assert.Equal(t, short, TruncateTitle(short))

	long := strings.Repeat("x", 101)
	got := TruncateTitle(long)
	assert.Equal(t, strings.Repeat("x", 97)+"...", got)
	assert.Len(t, got, 100)

	// rune-aware: multibyte titles are cut on rune boundaries
	jp := strings.Repeat("あ", 150)
	gotJP := TruncateTitle(jp)
	assert.Equal(t, strings.Repeat("あ", 97)+"...", gotJP)
}

func TestBuildLayoutDefaultsAndClamps(t *testing.T) {
	l := BuildLayout(Params{Title: "hi", Gradient: ogp.DefaultGradient})
	assert.Equal(t, DefaultWidth, l.Width)
	assert.Equal(t, DefaultHeight, l.Height)

	l = BuildLayout(Params{Title: "hi", Width: 4000, Height: 3000})
	assert.Equal(t, MaxWidth, l.Width)
	assert.Equal(t, MaxHeight, l.Height)

	l = BuildLayout(Params{Title: "hi", Width: -5, Height: 0})
	assert.Equal(t, DefaultWidth, l.Width)
	assert.Equal(t, DefaultHeight, l.Height)
}

func TestBuildLayoutDecorations(t *testing.T) {
	l := BuildLayout(Params{Title: "hi"})
	assert.False(t, l.HasIcon)
	assert.False(t, l.HasLogo)
	assert.Empty(t, l.Author)

	l = BuildLayout(Params{
		Title:    "hi",
		IconData: []byte{1, 2, 3},
		Author:   "someone",
		LogoData: []byte{4, 5, 6},
	})
	assert.True(t, l.HasIcon)
	assert.True(t, l.HasLogo)
	assert.Equal(t, "someone", l.Author)
}
