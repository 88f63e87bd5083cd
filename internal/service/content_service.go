package service

import (
	"errors"

	"github.com/chemdisk/members/internal/content"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

// ContentService resolves content aliases and translates resolver failures
// into API errors.
type ContentService struct {
	resolver *content.Resolver
}

// NewContentService builds the service around a resolver.
func NewContentService(resolver *content.Resolver) *ContentService {
	return &ContentService{resolver: resolver}
}

// PDF resolves a Drive file alias.
func (s *ContentService) PDF(alias string) (content.PDFTarget, error) {
	target, err := s.resolver.PDF(alias)
	if err != nil {
		return content.PDFTarget{}, mapContentError(err)
	}
	return target, nil
}

// Slides resolves a presentation key.
func (s *ContentService) Slides(key, mode string) (content.SlidesTarget, error) {
	target, err := s.resolver.Slides(key, content.ParseSlidesMode(mode))
	if err != nil {
		return content.SlidesTarget{}, mapContentError(err)
	}
	return target, nil
}

// Forms resolves a form key.
func (s *ContentService) Forms(key, variant string) (content.FormsTarget, error) {
	target, err := s.resolver.Forms(key, content.ParseFormsVariant(variant))
	if err != nil {
		return content.FormsTarget{}, mapContentError(err)
	}
	return target, nil
}

// YouTube resolves a video key.
func (s *ContentService) YouTube(key string) (content.VideoTarget, error) {
	target, err := s.resolver.YouTube(key)
	if err != nil {
		return content.VideoTarget{}, mapContentError(err)
	}
	return target, nil
}

func mapContentError(err error) error {
	switch {
	case errors.Is(err, content.ErrMissingAlias):
		return apperrors.NewValidationError("missing ?key=ALIAS", nil)
	case errors.Is(err, content.ErrInvalidAlias):
		return apperrors.NewValidationError("invalid alias format", nil)
	case errors.Is(err, content.ErrNotConfigured):
		return apperrors.NewNotFound("alias", nil)
	case errors.Is(err, content.ErrInvalidTarget):
		return apperrors.NewValidationError("configured id is invalid", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
