package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	executequery "hr-analytics/internal/workers/analytics/execute-query"
)

func decodeExpression(flag, raw string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", flag, err)
	}
	return v, nil
}

func (a *App) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query EXPRESSION",
		Short: "Evaluate one query expression",
		Example: `  hr-analytics query '{"operation":"count","entity":"applicants"}'
  hr-analytics query '{"operation":"count","entity":"applicants","group_by":{"field":"source"}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := decodeExpression("expression", args[0])
			if err != nil {
				return err
			}

			s, err := a.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			h := executequery.NewHandler(executequery.LoadConfig(s.cfg), s.runtime, s.log)
			out, err := h.Execute(cmd.Context(), &executequery.Input{Expression: expr})
			if err != nil {
				return err
			}
			if s.json {
				return writeJSON(cmd.OutOrStdout(), out.Value)
			}
			return writeValue(cmd.OutOrStdout(), out.Value)
		},
	}
}

func (a *App) chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Build chart series from an x/y axis pair",
		Example: `  hr-analytics chart --x '{"operation":"field","entity":"applicants","field":"source"}' \
    --y '{"operation":"count","entity":"applicants","group_by":{"field":"source"}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			xRaw, err := cmd.Flags().GetString("x")
			if err != nil {
				return fmt.Errorf("failed to get x flag: %w", err)
			}
			yRaw, err := cmd.Flags().GetString("y")
			if err != nil {
				return fmt.Errorf("failed to get y flag: %w", err)
			}
			x, err := decodeExpression("--x", xRaw)
			if err != nil {
				return err
			}
			y, err := decodeExpression("--y", yRaw)
			if err != nil {
				return err
			}

			s, err := a.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			h := executequery.NewHandler(executequery.LoadConfig(s.cfg), s.runtime, s.log)
			out, err := h.Execute(cmd.Context(), &executequery.Input{
				Chart: &executequery.ChartInput{XAxis: x, YAxis: y},
			})
			if err != nil {
				return err
			}
			if s.json {
				return writeJSON(cmd.OutOrStdout(), out.ChartData)
			}
			return writeValue(cmd.OutOrStdout(), out.ChartData)
		},
	}
	cmd.Flags().String("x", "", "x axis expression (JSON)")
	cmd.Flags().String("y", "", "y axis expression (JSON)")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}
