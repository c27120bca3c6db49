package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/ecgscan/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// racedUserRepo reports the email as free and then loses the insert.
type racedUserRepo struct {
	AuthUserRepository
}

func (racedUserRepo) ExistsByNormalizedEmail(context.Context, string) (bool, error) {
	return false, nil
}

func (racedUserRepo) Create(context.Context, *models.User) error {
	return gorm.ErrDuplicatedKey
}

func TestRegisterLosingEmailRaceReportsEmailTaken(t *testing.T) {
	service := NewAuthService(racedUserRepo{}, nil)

	_, err := service.Register(context.Background(), RegistrationInput{Username: "ana", Email: "ana@clinic.org", Password: "StrongPass1"})
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestRegisterCreatesNurseWithPlaceholderAvatar(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegistrationInput{
		Username: "Ana Lima",
		Email:    " Ana@Clinic.org ",
		Password: "StrongPass1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleNurse, user.Role)
	assert.Equal(t, "ana@clinic.org", user.Email)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Ana+Lima&background=random", user.AvatarURL)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("StrongPass1")))

	profile := env.profiles.Lookup(ctx, user.ID)
	assert.Equal(t, "Ana Lima", profile.Username)

	_, err = env.auth.Register(ctx, RegistrationInput{Username: "Other", Email: "ANA@clinic.org", Password: "StrongPass1"})
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	cases := []RegistrationInput{
		{Username: "", Email: "a@b.org", Password: "StrongPass1"},
		{Username: "a", Email: "nope", Password: "StrongPass1"},
		{Username: "a", Email: "a@b.org", Password: "weak"},
		{Username: "a", Email: "a@b.org", Password: "StrongPass1", Role: "admin"},
	}
	for _, input := range cases {
		_, err := env.auth.Register(ctx, input)
		assert.ErrorIs(t, err, ErrValidation, "input %#v", input)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegistrationInput{Username: "house", Email: "house@clinic.org", Password: "StrongPass1", Role: "physician"})
	require.NoError(t, err)

	user, err := env.auth.Authenticate(ctx, "HOUSE@clinic.org", "StrongPass1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, models.RolePhysician, user.Role)

	_, err = env.auth.Authenticate(ctx, "house@clinic.org", "WrongPass1")
	assert.ErrorIs(t, err, ErrAuthCredentialsInvalid)

	_, err = env.auth.Authenticate(ctx, "nobody@clinic.org", "StrongPass1")
	assert.ErrorIs(t, err, ErrAuthCredentialsInvalid)
}

func TestSetPasswordMarksMustChange(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegistrationInput{Username: "ana", Email: "ana@clinic.org", Password: "StrongPass1"})
	require.NoError(t, err)

	require.NoError(t, env.auth.SetPassword(ctx, "ana@clinic.org", "tmp"+strings.Repeat("x", 9), true))

	user, err := env.auth.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, user.MustChangePassword)

	_, err = env.auth.Authenticate(ctx, "ana@clinic.org", "tmpxxxxxxxxx")
	assert.NoError(t, err)

	assert.ErrorIs(t, env.auth.SetPassword(ctx, "ghost@clinic.org", "whatever", false), ErrNotFound)
	_, err = env.auth.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
