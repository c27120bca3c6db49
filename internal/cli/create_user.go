package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/ecgscan/internal/services"
)

func NewCreateUserCommand(opts *RootOptions) *cobra.Command {
	input := services.RegistrationInput{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create one account, prompting for the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptNewPassword(opts.Stdin, opts.Stdout)
			if err != nil {
				return err
			}
			input.Password = password

			database, err := OpenDatabase(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer closeDatabase(database)

			user, err := newAuthService(database, opts.Logger).Register(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			_, err = fmt.Fprintf(opts.Stdout, "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "display name (required)")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&input.Role, "role", "nurse", "nurse or physician")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptNewPassword asks twice. Echo is disabled when stdin is a terminal;
// piped input is read line by line.
func promptNewPassword(stdin io.Reader, out io.Writer) (string, error) {
	reader := newLineReader(stdin)

	fmt.Fprint(out, "Password: ")
	first, err := reader()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	second, err := reader()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if first != second {
		return "", errors.New("passwords do not match")
	}
	if err := services.ValidatePasswordStrength(first); err != nil {
		return "", errors.New("password must have 8+ characters with upper, lower case and a digit")
	}
	return first, nil
}

func newLineReader(stdin io.Reader) func() (string, error) {
	if file, ok := stdin.(*os.File); ok {
		if info, err := file.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return func() (string, error) {
				line, err := readPasswordNoEcho(file)
				return string(line), err
			}
		}
	}

	buffered := bufio.NewReader(stdin)
	return func() (string, error) {
		line, err := buffered.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
