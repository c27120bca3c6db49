package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordChangeInvalidInput = errors.New("password change invalid input")
	ErrPasswordMismatch           = errors.New("password confirmation mismatch")
	ErrInvalidCurrentPassword     = errors.New("invalid current password")
	ErrNewPasswordMustDiffer      = errors.New("new password must differ")
)

type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

func ValidatePasswordChange(passwordHash string, change PasswordChange) error {
	current := strings.TrimSpace(change.Current)
	next := strings.TrimSpace(change.New)
	confirm := strings.TrimSpace(change.Confirm)

	if current == "" || next == "" || confirm == "" {
		return ErrPasswordChangeInvalidInput
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(current)) != nil {
		return ErrInvalidCurrentPassword
	}
	if current == next {
		return ErrNewPasswordMustDiffer
	}
	return ValidatePasswordStrength(next)
}

// ChangePassword also clears the must-change flag left by a CLI reset.
func (service *AuthService) ChangePassword(ctx context.Context, identity *Identity, change PasswordChange) error {
	if err := RequireIdentity(identity); err != nil {
		return err
	}
	user, err := service.FindByID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if err := ValidatePasswordChange(user.PasswordHash, change); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(change.New)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, string(passwordHash), false); err != nil {
		return transportError("update password", err)
	}
	return nil
}
