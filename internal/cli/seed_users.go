package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/ecgscan/internal/services"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by seed-users:
//
//	users:
//	  - username: Ana Souza
//	    email: ana@example.com
//	    password: StrongPass1
//	    role: nurse
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

func NewSeedUsersCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create accounts listed in a YAML file",
		Long: `Create accounts listed in a YAML file. Accounts whose email already
exists are skipped, so the command can be re-run.

Example:
  ecgscan seed-users --file users.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeedFile(file)
			if err != nil {
				return err
			}

			database, err := OpenDatabase(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer closeDatabase(database)

			return SeedUsers(cmd.Context(), newAuthService(database, opts.Logger), seed, opts.Stdout)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to users YAML (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadSeedFile(path string) (SeedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	seed := SeedFile{}
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Users) == 0 {
		return SeedFile{}, errors.New("seed file lists no users")
	}
	return seed, nil
}

// SeedUsers registers every entry and stops at the first invalid one.
func SeedUsers(ctx context.Context, auth *services.AuthService, seed SeedFile, out io.Writer) error {
	created, skipped := 0, 0
	for index, entry := range seed.Users {
		_, err := auth.Register(ctx, services.RegistrationInput{
			Username: entry.Username,
			Email:    entry.Email,
			Password: entry.Password,
			Role:     entry.Role,
		})
		switch {
		case errors.Is(err, services.ErrAuthEmailTaken):
			skipped++
		case err != nil:
			return fmt.Errorf("user %d (%s): %w", index+1, entry.Email, err)
		default:
			created++
		}
	}

	_, err := fmt.Fprintf(out, "Seeded users: %d created, %d already present\n", created, skipped)
	return err
}
