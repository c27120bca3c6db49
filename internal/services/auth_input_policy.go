package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/terraincognita07/ecgscan/internal/models"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrAuthEmailTaken         = errors.New("auth email already registered")
)

const maxUsernameLength = 64

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

func NormalizeUsername(raw string) (string, error) {
	username := strings.Join(strings.Fields(raw), " ")
	if username == "" {
		return "", NewValidationError("username", "is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", NewValidationError("username", "is too long")
	}
	return username, nil
}

// NormalizeRegistrationRole defaults an empty role to nurse.
func NormalizeRegistrationRole(raw string) (models.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return models.RoleNurse, nil
	}
	role, ok := models.ParseRole(raw)
	if !ok {
		return "", NewValidationError("role", "must be nurse or physician")
	}
	return role, nil
}
