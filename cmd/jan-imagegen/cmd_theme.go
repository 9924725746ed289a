package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janhq/jan-imagegen/internal/domain/theme"
)

func newThemeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Read or change the UI theme",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: withApp(root, func(cmd *cobra.Command, _ []string, app *App) error {
			t, err := app.Theme.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		}),
	}

	setCmd := &cobra.Command{
		Use:       "set <light|dark>",
		Short:     "Persist the theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark)},
		RunE: withApp(root, func(cmd *cobra.Command, args []string, app *App) error {
			t, err := theme.Parse(args[0])
			if err != nil {
				return err
			}
			if err := app.Theme.Set(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", t)
			return nil
		}),
	}

	cmd.AddCommand(getCmd, setCmd)
	return cmd
}
