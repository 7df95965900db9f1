package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const SessionCookieName = "notes_session"

// SessionID returns the caller's session id, issuing a cookie on first contact.
func SessionID(ctx *fiber.Ctx) string {
	if id := ctx.Cookies(SessionCookieName); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.New().String()
	ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return id
}
