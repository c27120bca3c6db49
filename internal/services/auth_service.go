package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/ecgscan/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string, mustChangePassword bool) error
}

type RegistrationInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type AuthService struct {
	users    AuthUserRepository
	profiles *ProfileDirectory
	now      func() time.Time
}

func NewAuthService(users AuthUserRepository, profiles *ProfileDirectory) *AuthService {
	return &AuthService{
		users:    users,
		profiles: profiles,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (service *AuthService) Register(ctx context.Context, input RegistrationInput) (models.User, error) {
	username, err := NormalizeUsername(input.Username)
	if err != nil {
		return models.User{}, err
	}
	email := NormalizeAuthEmail(input.Email)
	if email == "" {
		return models.User{}, NewValidationError("email", "is invalid")
	}
	if err := ValidatePasswordStrength(input.Password); err != nil {
		return models.User{}, NewValidationError("password", "must have 8+ characters with upper, lower case and a digit")
	}
	role, err := NormalizeRegistrationRole(input.Role)
	if err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, transportError("check email", err)
	}
	if exists {
		return models.User{}, ErrAuthEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		AvatarURL:    models.DefaultAvatarURL(username),
		PasswordHash: string(passwordHash),
		Role:         role,
		CreatedAt:    service.now(),
	}
	if err := service.users.Create(ctx, &user); err != nil {
		// A concurrent registration won the unique email index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrAuthEmailTaken
		}
		return models.User{}, transportError("create user", err)
	}
	if service.profiles != nil {
		service.profiles.Remember(user)
	}
	return user, nil
}

// Authenticate never tells a missing account apart from a wrong password.
func (service *AuthService) Authenticate(ctx context.Context, rawEmail string, rawPassword string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(rawEmail, rawPassword)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrAuthCredentialsInvalid
		}
		return models.User{}, transportError("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID string) (models.User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, transportError("load user", err)
	}
	return user, nil
}

// SetPassword stores a new bcrypt hash without checking strength, so it also
// serves generated temporary passwords.
func (service *AuthService) SetPassword(ctx context.Context, rawEmail string, password string, mustChangePassword bool) error {
	email := NormalizeAuthEmail(rawEmail)
	if email == "" {
		return NewValidationError("email", "is invalid")
	}
	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return transportError("load user", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, string(passwordHash), mustChangePassword); err != nil {
		return transportError("update password", err)
	}
	return nil
}
