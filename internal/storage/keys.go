package storage

import (
	"fmt"
	"strconv"
)

// Blob key categories.
const (
	CategoryImages  = "images"  // rendered OGP cards
	CategoryUploads = "uploads" // user-supplied icons and logos
)

// ObjectKey builds "{category}/{id}_{unixMillis}_{titleHash}.{ext}".
// The title hash only reduces accidental collisions between repeated
// titles; it carries no uniqueness or security guarantee, and a
// collision simply means last write wins.
func ObjectKey(category, id string, unixMillis int64, title, ext string) string {
	return fmt.Sprintf("%s/%s_%d_%s.%s", category, id, unixMillis, TitleHash(title), ext)
}

// TitleHash is a 32-bit rolling hash of the title, rendered in base36
// and truncated to 6 characters.
func TitleHash(title string) string {
	var h int32
	for _, r := range title {
		h = (h << 5) - h + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	s := strconv.FormatInt(v, 36)
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}
