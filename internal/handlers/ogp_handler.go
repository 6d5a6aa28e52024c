package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ogp-service/internal/auth"
	"ogp-service/internal/ogp"
	"ogp-service/internal/render"
	"ogp-service/internal/services"
	"ogp-service/internal/utils"
)

// OgpProvider is what the handler needs from the service layer.
type OgpProvider interface {
	Create(ctx context.Context, in services.CreateInput) (*ogp.Record, error)
	Image(ctx context.Context, id string) (*services.ImageOut, error)
	Metadata(ctx context.Context, id string) (*ogp.Record, error)
	IconPreview(ctx context.Context, rec *ogp.Record) (string, error)
	Fallback() ([]byte, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	svc      OgpProvider
	verifier *auth.JWTVerifier
	logger   *zap.SugaredLogger
}

func NewHandler(svc OgpProvider, verifier *auth.JWTVerifier, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

// POST /api/ogp (multipart/form-data)
func (h *Handler) Create(c *fiber.Ctx) error {
	in := services.CreateInput{
		Title:              c.FormValue("title"),
		GradientPreset:     c.FormValue("gradient"),
		CustomGradientFrom: c.FormValue("customGradientFrom"),
		CustomGradientTo:   c.FormValue("customGradientTo"),
		IconURL:            strings.TrimSpace(c.FormValue("icon")),
		Author:             strings.TrimSpace(c.FormValue("author")),
		CompanyLogoURL:     strings.TrimSpace(c.FormValue("companyLogo")),
	}

	var err error
	if in.IconFile, err = h.formImage(c, "iconFile"); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, err.Error())
	}
	if in.CompanyLogoFile, err = h.formImage(c, "companyLogoFile"); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, err.Error())
	}

	rec, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		if isValidationError(err) {
			return utils.JSONError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Errorw("create failed", "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "internal server error")
	}
	return utils.JSONSuccess(c, fiber.StatusCreated, fiber.Map{
		"id":        rec.ID,
		"url":       rec.URL,
		"resultUrl": fmt.Sprintf("/result?id=%s", rec.ID),
	})
}

// GET /api/ogp/:id
func (h *Handler) Image(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.svc.Image(c.UserContext(), id)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMetadataNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, "metadata not found")
	case errors.Is(err, services.ErrImageNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, "image not found")
	case errors.Is(err, render.ErrGenerationFailed):
		// On-demand render broke; serve the static card instead of an
		// error body so link unfurlers still get an image.
		h.logger.Errorw("serving fallback card", "id", id, "error", err)
		fb, fbErr := h.svc.Fallback()
		if fbErr != nil {
			return utils.JSONError(c, fiber.StatusInternalServerError, "internal server error")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(fb)
	default:
		h.logger.Errorw("image lookup failed", "id", id, "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Set(fiber.HeaderContentType, out.ContentType)
	c.Set(fiber.HeaderCacheControl, out.CacheControl)
	if out.ETag != "" {
		c.Set(fiber.HeaderETag, out.ETag)
	}
	return c.Send(out.Bytes)
}

// GET /api/ogp/:id/meta
func (h *Handler) Metadata(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := h.svc.Metadata(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrMetadataNotFound) {
			return utils.JSONError(c, fiber.StatusNotFound, "metadata not found")
		}
		h.logger.Errorw("metadata lookup failed", "id", id, "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "internal server error")
	}

	iconPreview, err := h.svc.IconPreview(c.UserContext(), rec)
	if err != nil {
		h.logger.Warnw("icon preview unavailable", "id", id, "error", err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"record":      rec,
		"imageUrl":    rec.URL,
		"iconPreview": iconPreview,
		"metaTags":    MetaTags(rec),
	})
}

// DELETE /api/ogp/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if token == "" {
		return utils.JSONError(c, fiber.StatusUnauthorized, "missing auth")
	}
	if _, err := h.verifier.VerifyToken(token); err != nil {
		return utils.JSONError(c, fiber.StatusUnauthorized, "invalid token")
	}
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		h.logger.Errorw("delete failed", "id", c.Params("id"), "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "internal server error")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MetaTags renders the copyable HTML snippet shown on the result page.
func MetaTags(rec *ogp.Record) string {
	return fmt.Sprintf(`<meta property="og:image" content="%s" />
<meta property="og:image:width" content="1200" />
<meta property="og:image:height" content="630" />
<meta property="og:title" content="%s" />
<meta property="twitter:card" content="summary_large_image" />
<meta property="twitter:image" content="%s" />`, rec.URL, rec.Title, rec.URL)
}

func (h *Handler) formImage(c *fiber.Ctx, field string) (*services.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		// Absent file field; fasthttp reports it as an error.
		return nil, nil
	}
	ext, err := utils.ValidateImageHeader(fh)
	if err != nil {
		return nil, err
	}
	data, err := readAll(fh)
	if err != nil {
		return nil, err
	}
	return &services.Upload{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Ext:         ext,
	}, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isValidationError(err error) bool {
	for _, v := range []error{
		ogp.ErrTitleRequired,
		ogp.ErrTitleTooLong,
		ogp.ErrUnknownPreset,
		ogp.ErrInvalidColor,
		ogp.ErrGradientNeeded,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
