package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	generatereport "hr-analytics/internal/workers/analytics/generate-report"
)

func (a *App) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report QUESTION",
		Short: "Generate a validated report for a natural-language question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := &generatereport.Input{Query: strings.Join(args, " ")}
			if cmd.Flags().Changed("max-retries") {
				v, err := cmd.Flags().GetInt("max-retries")
				if err != nil {
					return fmt.Errorf("failed to get max-retries flag: %w", err)
				}
				input.MaxRetries = &v
			}
			requestID, err := cmd.Flags().GetString("request-id")
			if err != nil {
				return fmt.Errorf("failed to get request-id flag: %w", err)
			}
			input.RequestID = requestID

			s, err := a.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			h := generatereport.NewHandler(generatereport.LoadConfig(s.cfg), s.runtime, s.log)
			out, err := h.Execute(cmd.Context(), input)
			if err != nil {
				return err
			}
			if s.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			table := newTable(cmd.OutOrStdout(), "Request", "State", "Valid", "Attempts", "Archived")
			table.Append([]string{
				out.RequestID,
				out.State,
				strconv.FormatBool(out.ValidationSuccess),
				strconv.Itoa(out.Attempts),
				strconv.FormatBool(out.Archived),
			})
			table.Render()
			if out.ImpossibleQuery {
				fmt.Fprintf(cmd.OutOrStdout(), "impossible query: %s\n", out.Reason)
				return nil
			}
			for _, e := range out.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "rejected attempt: %s\n", e)
			}
			return writeJSON(cmd.OutOrStdout(), out.Report)
		},
	}
	cmd.Flags().Int("max-retries", 0, "oracle correction rounds (default from analytics.max_retries)")
	cmd.Flags().String("request-id", "", "request id to archive under (generated when empty)")
	return cmd
}

func (a *App) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently archived reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}

			s, err := a.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			if s.runtime.Archiver == nil {
				return fmt.Errorf("report archive is not enabled (archive.enabled)")
			}
			records, err := s.runtime.Archiver.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if s.json {
				return writeJSON(cmd.OutOrStdout(), records)
			}

			table := newTable(cmd.OutOrStdout(), "Created", "Request", "State", "Attempts", "Question")
			for _, r := range records {
				table.Append([]string{
					r.CreatedAt.Format(time.RFC3339),
					r.RequestID,
					r.State,
					strconv.Itoa(r.Attempts),
					r.Question,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of reports to show")
	return cmd
}
