package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := OpenDatabase(opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer closeDatabase(database)

			_, err = fmt.Fprintf(opts.Stdout, "Migrations applied (%s)\n", opts.Config.DBDriver)
			return err
		},
	}
}
