package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hr-analytics/internal/common/database"
)

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the mirror schema migrations",
		Long:  "Creates or upgrades the relational mirror selected by analytics.mirror_driver.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := a.LoadConfig(path)
			if err != nil {
				return err
			}

			mirror, err := database.OpenMirror(cfg)
			if err != nil {
				return err
			}
			defer mirror.Close()

			if err := mirror.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("mirror unreachable: %w", err)
			}
			if err := database.Migrate(cmd.Context(), mirror.DB, mirror.Driver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mirror schema up to date (%s)\n", mirror.Driver)
			return nil
		},
	}
}
