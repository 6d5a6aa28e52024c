package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// fontCache holds the parsed title font, fetched at most once per
// process. A failed fetch is also cached: the renderer then uses the
// built-in fallback face instead of retrying on every render.
type fontCache struct {
	mu     sync.Mutex
	loaded bool
	fnt    *sfnt.Font

	client *http.Client
	url    string
}

func newFontCache(url string) *fontCache {
	return &fontCache{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

// face returns a font.Face at the given size, fetching and parsing the
// TTF on first use. When no font is available it falls back to the
// fixed-size basicfont face rather than failing the render.
func (c *fontCache) face(ctx context.Context, size float64) (font.Face, error) {
	c.mu.Lock()
	if !c.loaded {
		c.fnt = c.fetch(ctx)
		c.loaded = true
	}
	fnt := c.fnt
	c.mu.Unlock()

	if fnt == nil {
		return basicfont.Face7x13, errFontUnavailable
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (c *fontCache) fetch(ctx context.Context) *sfnt.Font {
	if c.url == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil
	}
	return fnt
}

// Reset drops the cached font so the next render fetches again.
// Exists for tests; production code never calls it.
func (c *fontCache) Reset() {
	c.mu.Lock()
	c.loaded = false
	c.fnt = nil
	c.mu.Unlock()
}

var errFontUnavailable = fmt.Errorf("title font unavailable, using fallback face")
