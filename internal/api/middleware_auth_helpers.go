package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/ecgscan/internal/services"
)

const authCookiePurpose = "auth"

// authenticateRequest accepts the sealed auth cookie or a bearer token and
// checks that the account still exists with the role carried in the token.
func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*services.Identity, error) {
	tokenValue, err := handler.requestToken(c)
	if err != nil {
		return nil, err
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenValue, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return handler.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}

	user, err := handler.authService.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != claims.Role {
		return nil, errors.New("role changed since token was issued")
	}

	return &services.Identity{ID: user.ID, Role: user.Role}, nil
}

func (handler *Handler) requestToken(c *fiber.Ctx) (string, error) {
	if header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			return "", errors.New("malformed authorization header")
		}
		return strings.TrimSpace(value), nil
	}

	rawCookie := strings.TrimSpace(c.Cookies(authCookieName))
	if rawCookie == "" {
		return "", errors.New("missing auth cookie")
	}
	plaintext, err := handler.cookieCodec.open(authCookiePurpose, rawCookie)
	if err != nil {
		return "", errors.New("invalid auth cookie")
	}
	return string(plaintext), nil
}
