package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/ecgscan/internal/security"
	"github.com/terraincognita07/ecgscan/internal/services"
)

func NewResetPasswordCommand(opts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace a password with a temporary one",
		Long: `Replace a password with a generated temporary one. The user is asked
to change it after the next login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := OpenDatabase(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer closeDatabase(database)

			return RunResetPasswordCommand(cmd.Context(), newAuthService(database, opts.Logger), email, opts.Stdout)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func RunResetPasswordCommand(ctx context.Context, auth *services.AuthService, email string, out io.Writer) error {
	temporaryPassword, err := generateTemporaryPassword(12)
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}

	if err := auth.SetPassword(ctx, email, temporaryPassword, true); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("user %s not found", email)
		}
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	fmt.Fprintln(out, "User must change password on next login.")
	return nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	return security.RandomString(length, security.TemporaryPasswordAlphabet)
}
