package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chemdisk/members/internal/api/dto"
	"github.com/chemdisk/members/internal/service"
)

// ContentHandler exposes the alias resolvers.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler constructs handler.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// NoStore marks resolver responses, including errors, as uncacheable.
func NoStore(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Next()
}

// PDF handles GET /.netlify/functions/pdf-key and GET /resolve/pdf.
func (h *ContentHandler) PDF(c *fiber.Ctx) error {
	target, err := h.content.PDF(c.Query("key"))
	if err != nil {
		return err
	}
	return c.JSON(dto.PDFResponse{FileID: target.FileID})
}

// Slides handles GET /.netlify/functions/slides-key.
func (h *ContentHandler) Slides(c *fiber.Ctx) error {
	target, err := h.content.Slides(c.Query("id"), c.Query("mode"))
	if err != nil {
		return err
	}
	return c.JSON(dto.SlidesResponse{
		ID:         target.ID,
		Key:        target.Key,
		Source:     target.Source,
		Mode:       string(target.Mode),
		URL:        target.URL(),
		EmbedURL:   target.URLs.Embed,
		PreviewURL: target.URLs.Preview,
		PresentURL: target.URLs.Present,
	})
}

// Forms handles GET /.netlify/functions/forms-key.
func (h *ContentHandler) Forms(c *fiber.Ctx) error {
	target, err := h.content.Forms(c.Query("key"), c.Query("path"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FormsResponse{
		Key:         target.Key,
		ID:          target.ID,
		URL:         target.URL,
		FallbackURL: target.FallbackURL,
	})
}

// YouTube handles GET /.netlify/functions/yt-key.
func (h *ContentHandler) YouTube(c *fiber.Ctx) error {
	target, err := h.content.YouTube(c.Query("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.VideoResponse{OK: true, Key: target.Key, Obf: target.Obfuscated()})
}
