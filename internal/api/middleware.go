package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/services"
)

const (
	authCookieName     = "ecgscan_auth"
	languageCookieName = "ecgscan_lang"
	contextIdentityKey = "current_identity"
	contextLanguageKey = "current_language"
)

func currentIdentity(c *fiber.Ctx) (*services.Identity, bool) {
	identity, ok := c.Locals(contextIdentityKey).(*services.Identity)
	return identity, ok
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}
