package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/chemdisk/members/internal/api/dto"
	"github.com/chemdisk/members/internal/auth"
	"github.com/chemdisk/members/internal/chat"
	"github.com/chemdisk/members/internal/service"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

// ChatHandler proxies chat completions for active members.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Complete handles POST /.netlify/functions/chat and POST /chat.
func (h *ChatHandler) Complete(c *fiber.Ctx) error {
	var req chat.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperrors.NewValidationError("invalid JSON", nil)
	}

	var userID string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		userID = principal.User.ID
	}

	text, err := h.chat.Complete(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatResponse{Text: text})
}

// Preflight answers OPTIONS for the chat routes; CORS headers are added by the
// route's cors middleware.
func (h *ChatHandler) Preflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
