package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"

	"github.com/chemdisk/members/internal/auth"
)

const membersFragment = `<section class="members-content">
  <h2>Members area</h2>
  <p>Signed in as <strong>%s</strong>.</p>
  <ul>
    <li><a href="/members/lectures/">Lecture notes</a></li>
    <li><a href="/members/slides/">Slide decks</a></li>
    <li><a href="/members/quizzes/">Quizzes</a></li>
    <li><a href="/members/chat/">Study assistant</a></li>
  </ul>
</section>
`

// MembersHandler serves the HTML fragment injected into members pages.
type MembersHandler struct{}

// NewMembersHandler constructs handler.
func NewMembersHandler() *MembersHandler {
	return &MembersHandler{}
}

// Content handles GET /.netlify/functions/members-content. Access is enforced
// by the route middleware.
func (h *MembersHandler) Content(c *fiber.Ctx) error {
	email := ""
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		email = principal.User.Email
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("html", "utf-8")
	return c.SendString(fmt.Sprintf(membersFragment, html.EscapeString(email)))
}
