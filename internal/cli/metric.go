package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hr-analytics/internal/derived"
	computemetric "hr-analytics/internal/workers/analytics/compute-metric"
)

func (a *App) metricCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metric NAME",
		Short: "Compute one derived recruiting metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := &computemetric.Input{Metric: args[0]}
			if cmd.Flags().Changed("window-days") {
				v, err := cmd.Flags().GetInt("window-days")
				if err != nil {
					return fmt.Errorf("failed to get window-days flag: %w", err)
				}
				input.WindowDays = &v
			}
			if cmd.Flags().Changed("months") {
				v, err := cmd.Flags().GetInt("months")
				if err != nil {
					return fmt.Errorf("failed to get months flag: %w", err)
				}
				input.Months = &v
			}

			s, err := a.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			h := computemetric.NewHandler(computemetric.LoadConfig(s.cfg), s.runtime, s.log)
			out, err := h.Execute(cmd.Context(), input)
			if err != nil {
				return err
			}
			if s.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if err := writeValue(cmd.OutOrStdout(), out.Value); err != nil {
				return err
			}
			source := "computed"
			if out.Cached {
				source = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s at %s\n", out.Metric, source, out.ComputedAt)
			return nil
		},
	}
	cmd.Flags().Int("window-days", 0, "trailing window for time_to_hire")
	cmd.Flags().Int("months", 0, "months covered by offer_acceptance_rate")
	return cmd
}

func (a *App) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the derived metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Root().PersistentFlags().GetBool("json")
			if err != nil {
				return fmt.Errorf("failed to get json flag: %w", err)
			}
			list := derived.List()
			if asJSON {
				out := make([]map[string]string, 0, len(list))
				for _, m := range list {
					out = append(out, map[string]string{"name": string(m.Name), "description": m.Description})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			table := newTable(cmd.OutOrStdout(), "Metric", "Description")
			for _, m := range list {
				table.Append([]string{string(m.Name), m.Description})
			}
			table.Render()
			return nil
		},
	}
}
