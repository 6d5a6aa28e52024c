package utils

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps icon and logo uploads.
const MaxUploadBytes = 1 << 20 // 1MB

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var (
	ErrFileTooLarge    = errors.New("file exceeds the 1MB limit")
	ErrFileTypeInvalid = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
)

// ValidateImageHeader checks the size and MIME restrictions on an
// uploaded icon or logo and returns the extension to store it under.
func ValidateImageHeader(h *multipart.FileHeader) (ext string, err error) {
	if h.Size == 0 || h.Size > MaxUploadBytes {
		return "", ErrFileTooLarge
	}
	ct := h.Header.Get("Content-Type")
	ext, ok := allowedTypes[ct]
	if !ok {
		return "", ErrFileTypeInvalid
	}
	// Prefer the filename's own extension when it is one we know.
	if fe := strings.TrimPrefix(strings.ToLower(filepath.Ext(h.Filename)), "."); knownExts[fe] {
		ext = fe
	}
	return ext, nil
}

var knownExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}
