package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hr-analytics/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func activitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Inspect the BPMN activity registry",
	}
	cmd.PersistentFlags().String("path", defaultRegistryPath, "path to the registry file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered activities",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := loadActivities(cmd)
				if err != nil {
					return err
				}
				table := newTable(cmd.OutOrStdout(), "ID", "Task Type", "Status", "Timeout", "Retries", "Error Codes")
				for _, a := range reg.Activities {
					table.Append([]string{
						a.ID,
						a.TaskType,
						a.ImplementationStatus,
						a.Timeout,
						strconv.Itoa(a.Retries),
						strings.Join(a.ErrorCodes, ", "),
					})
				}
				table.Render()
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check identifiers, error codes and input schemas",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := loadActivities(cmd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registry %s: %d activities valid\n", reg.Version, len(reg.Activities))
				return nil
			},
		},
	)
	return cmd
}

func loadActivities(cmd *cobra.Command) (*registry.ActivityRegistry, error) {
	path, err := cmd.Flags().GetString("path")
	if err != nil {
		return nil, fmt.Errorf("failed to get path flag: %w", err)
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}
