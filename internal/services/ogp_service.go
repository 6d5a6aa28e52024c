package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ogp-service/internal/metadata"
	"ogp-service/internal/ogp"
	"ogp-service/internal/render"
	"ogp-service/internal/storage"
)

var (
	ErrMetadataNotFound = errors.New("metadata not found")
	ErrImageNotFound    = errors.New("image not found")
)

const imageCacheControl = "public, max-age=31536000, immutable"

// MetadataStore is the subset of the metadata adapter the service uses.
type MetadataStore interface {
	Put(ctx context.Context, id string, rec *ogp.Record) error
	Get(ctx context.Context, id string) (*ogp.Record, error)
	Delete(ctx context.Context, id string) error
}

// BlobStore is the subset of the blob adapter the service uses.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType, cacheControl string, meta map[string]string) error
	Get(ctx context.Context, key string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
	GetInline(ctx context.Context, key string) (string, error)
}

// Renderer produces PNG bytes from render params.
type Renderer interface {
	Render(ctx context.Context, p render.Params) ([]byte, error)
	RenderFallback() ([]byte, error)
}

// CreateInput is a validated-enough form submission: the handler has
// already enforced file size and MIME limits on the uploads.
type CreateInput struct {
	Title              string
	GradientPreset     string
	CustomGradientFrom string
	CustomGradientTo   string

	IconURL  string
	IconFile *Upload

	Author string

	CompanyLogoURL  string
	CompanyLogoFile *Upload
}

// Upload is one accepted multipart file.
type Upload struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ImageOut is a deliverable PNG plus caching hints.
type ImageOut struct {
	Bytes        []byte
	ContentType  string
	CacheControl string
	ETag         string
}

// OgpService wires the metadata store, blob store and render pipeline
// behind the HTTP handlers.
type OgpService struct {
	meta      MetadataStore
	blobs     BlobStore
	renderer  Renderer
	prerender bool
	baseURL   string
	http      *http.Client
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewOgpService(meta MetadataStore, blobs BlobStore, renderer Renderer, prerender bool, baseURL string, logger *zap.SugaredLogger) *OgpService {
	return &OgpService{
		meta:      meta,
		blobs:     blobs,
		renderer:  renderer,
		prerender: prerender,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the submission, uploads any icon/logo files, renders
// and stores the card when pre-rendering is on, and writes the metadata
// record. Validation fails before any store call.
func (s *OgpService) Create(ctx context.Context, in CreateInput) (*ogp.Record, error) {
	title, err := ogp.NormalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	gradient, err := ogp.ResolveGradient(in.GradientPreset, in.CustomGradientFrom, in.CustomGradientTo)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.now()

	icon, err := s.storeRef(ctx, id, now, title, in.IconURL, in.IconFile)
	if err != nil {
		return nil, err
	}
	logo, err := s.storeRef(ctx, id, now, title, in.CompanyLogoURL, in.CompanyLogoFile)
	if err != nil {
		return nil, err
	}

	rec := &ogp.Record{
		ID:          id,
		Title:       title,
		Gradient:    gradient,
		Icon:        icon,
		Author:      in.Author,
		CompanyLogo: logo,
		URL:         fmt.Sprintf("%s/api/ogp/%s", s.baseURL, id),
	}
	rec.Stamp(now)

	if s.prerender {
		png, err := s.renderRecord(ctx, rec)
		if err != nil {
			return nil, err
		}
		key := storage.ObjectKey(storage.CategoryImages, id, now.UnixMilli(), title, "png")
		meta := map[string]string{
			"ogpId":     id,
			"title":     title,
			"createdAt": rec.CreatedAt,
		}
		if err := s.blobs.Put(ctx, key, png, "image/png", imageCacheControl, meta); err != nil {
			return nil, err
		}
		rec.BlobKey = key
	}

	if err := s.meta.Put(ctx, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Image returns the PNG for a record: the stored blob in the
// pre-rendered variant, a fresh render otherwise.
func (s *OgpService) Image(ctx context.Context, id string) (*ImageOut, error) {
	rec, err := s.meta.Get(ctx, id)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, ErrMetadataNotFound
		}
		return nil, err
	}

	if rec.BlobKey != "" {
		obj, err := s.blobs.Get(ctx, rec.BlobKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrImageNotFound
			}
			return nil, err
		}
		return &ImageOut{
			Bytes:        obj.Bytes,
			ContentType:  "image/png",
			CacheControl: imageCacheControl,
			ETag:         fmt.Sprintf("%q", storage.TitleHash(rec.BlobKey)),
		}, nil
	}

	png, err := s.renderRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &ImageOut{
		Bytes:        png,
		ContentType:  "image/png",
		CacheControl: imageCacheControl,
		ETag:         fmt.Sprintf("%q", storage.TitleHash(rec.ID+rec.CreatedAt)),
	}, nil
}

// Metadata returns the stored record for the result page.
func (s *OgpService) Metadata(ctx context.Context, id string) (*ogp.Record, error) {
	rec, err := s.meta.Get(ctx, id)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, ErrMetadataNotFound
	}
	return rec, err
}

// IconPreview returns an uploaded icon as a data URI, or "" when the
// record has no blob-backed icon.
func (s *OgpService) IconPreview(ctx context.Context, rec *ogp.Record) (string, error) {
	if rec.Icon.IsZero() || rec.Icon.Kind != ogp.RefBlob {
		return "", nil
	}
	uri, err := s.blobs.GetInline(ctx, rec.Icon.Ref)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return uri, err
}

// Fallback returns the static error card.
func (s *OgpService) Fallback() ([]byte, error) {
	return s.renderer.RenderFallback()
}

// Delete removes the record and every blob it owns. Idempotent: a
// missing record is a no-op.
func (s *OgpService) Delete(ctx context.Context, id string) error {
	rec, err := s.meta.Get(ctx, id)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil
		}
		return err
	}
	for _, key := range ownedBlobKeys(rec) {
		if err := s.blobs.Delete(ctx, key); err != nil {
			return err
		}
	}
	return s.meta.Delete(ctx, id)
}

func ownedBlobKeys(rec *ogp.Record) []string {
	var keys []string
	if rec.BlobKey != "" {
		keys = append(keys, rec.BlobKey)
	}
	for _, ref := range []*ogp.ImageRef{rec.Icon, rec.CompanyLogo} {
		if !ref.IsZero() && ref.Kind == ogp.RefBlob {
			keys = append(keys, ref.Ref)
		}
	}
	return keys
}

// storeRef uploads a file to the blob store when one was submitted,
// otherwise records the URL as-is. The kind is decided here, at write
// time, and never re-inferred later.
func (s *OgpService) storeRef(ctx context.Context, id string, now time.Time, title string, url string, file *Upload) (*ogp.ImageRef, error) {
	if file != nil {
		key := storage.ObjectKey(storage.CategoryUploads, id, now.UnixMilli(), title, file.Ext)
		if err := s.blobs.Put(ctx, key, file.Data, file.ContentType, imageCacheControl, nil); err != nil {
			return nil, err
		}
		return ogp.BlobRef(key), nil
	}
	if url != "" {
		return ogp.URLRef(url), nil
	}
	return nil, nil
}

// renderRecord resolves the record's image refs to bytes and runs the
// pipeline. Unresolvable icons and logos are dropped from the card
// rather than failing the whole render.
func (s *OgpService) renderRecord(ctx context.Context, rec *ogp.Record) ([]byte, error) {
	return s.renderer.Render(ctx, render.Params{
		Title:    rec.Title,
		Gradient: rec.Gradient,
		IconData: s.resolveRef(ctx, rec.Icon),
		Author:   rec.Author,
		LogoData: s.resolveRef(ctx, rec.CompanyLogo),
	})
}

func (s *OgpService) resolveRef(ctx context.Context, ref *ogp.ImageRef) []byte {
	if ref.IsZero() {
		return nil
	}
	switch ref.Kind {
	case ogp.RefBlob:
		obj, err := s.blobs.Get(ctx, ref.Ref)
		if err != nil {
			s.logger.Warnw("image blob unavailable, rendering without it", "key", ref.Ref, "error", err)
			return nil
		}
		return obj.Bytes
	case ogp.RefURL:
		data, err := s.fetchURL(ctx, ref.Ref)
		if err != nil {
			s.logger.Warnw("image url unavailable, rendering without it", "url", ref.Ref, "error", err)
			return nil
		}
		return data
	}
	return nil
}

func (s *OgpService) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	// Remote icons obey the same cap as uploads.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return data, nil
}
