package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/chat"
	"github.com/chemdisk/members/internal/config"
	"github.com/chemdisk/members/internal/ratelimit"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

// Generator produces a completion for a Gemini payload.
type Generator interface {
	Generate(ctx context.Context, model string, payload chat.GenerateRequest) (string, error)
}

// ChatService validates chat requests, applies the per-user rate limit and
// forwards them to the completion backend.
type ChatService struct {
	generator Generator
	limiter   ratelimit.Limiter
	limit     int
	defaults  chat.Defaults
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService builds the service. limiter may be nil to disable limiting.
func NewChatService(cfg config.ChatConfig, generator Generator, limiter ratelimit.Limiter, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		generator: generator,
		limiter:   limiter,
		limit:     cfg.RateLimitPerMinute,
		defaults:  chat.Defaults{Model: cfg.Model, Temperature: cfg.Temperature},
		logger:    logger,
		now:       time.Now,
	}
}

// Complete answers req on behalf of userID.
func (s *ChatService) Complete(ctx context.Context, userID string, req chat.Request) (string, error) {
	validated, err := req.Validate(s.defaults)
	if err != nil {
		var ve *chat.ValidationError
		if errors.As(err, &ve) {
			details := make(map[string]any, len(ve.Fields))
			for k, v := range ve.Fields {
				details[k] = v
			}
			return "", apperrors.NewValidationError("invalid chat request", details)
		}
		return "", apperrors.NewValidationError(err.Error(), nil)
	}

	if err := s.allow(ctx, userID); err != nil {
		return "", err
	}

	text, err := s.generator.Generate(ctx, validated.Model, chat.BuildPayload(validated))
	if err != nil {
		return "", s.mapUpstreamError(err)
	}
	return text, nil
}

func (s *ChatService) allow(ctx context.Context, userID string) error {
	if s.limiter == nil || s.limit <= 0 || userID == "" {
		return nil
	}
	now := s.now()
	res, err := s.limiter.Allow(ctx, "chat:"+userID, s.limit, now)
	if err != nil {
		s.logger.Warn("chat rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !res.Allowed {
		retry := res.Reset.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return apperrors.NewTooManyRequests("chat rate limit exceeded", map[string]any{
			"limit":               s.limit,
			"retry_after_seconds": int(retry.Round(time.Second) / time.Second),
		})
	}
	return nil
}

func (s *ChatService) mapUpstreamError(err error) error {
	var upstream *chat.UpstreamError
	switch {
	case errors.As(err, &upstream):
		s.logger.Warn("chat upstream rejected request", zap.Int("status", upstream.Status))
		return apperrors.NewBadGateway(fmt.Sprintf("Upstream %d", upstream.Status), upstream.Status, upstream.Body)
	case errors.Is(err, chat.ErrMissingAPIKey):
		return apperrors.NewMisconfigured("Server misconfigured: missing GEMINI_API_KEY")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewBadGateway("Request failed", 0, err.Error())
	default:
		s.logger.Warn("chat upstream request failed", zap.Error(err))
		return apperrors.NewBadGateway("Request failed", 0, err.Error())
	}
}
