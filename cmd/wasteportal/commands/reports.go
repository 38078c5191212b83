package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wasteportal/internal/printer"
	"wasteportal/pkg/domain"
)

func (a *app) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect and triage problem reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(a.reportsListCommand(), a.reportsVerifyCommand())
	return cmd
}

func (a *app) reportsListCommand() *cobra.Command {
	var status, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Example: `  wasteportal reports list
  wasteportal reports list --status pending
  wasteportal reports list --output jsonl | jq .title`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := a.openService(ctx, a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return printer.Error("Cannot open storage", err.Error(), nil)
			}
			defer cleanup()
			reports, err := svc.ListReports(status)
			if err != nil {
				return printer.Error("Invalid status filter", err.Error(), []string{
					"Use --status all, pending or verified",
				})
			}
			out := cmd.OutOrStdout()
			switch output {
			case "jsonl":
				enc := json.NewEncoder(out)
				for _, r := range reports {
					if err := enc.Encode(r); err != nil {
						return err
					}
				}
			case "default":
				printer.Reports(out, reports)
			default:
				return printer.Error("Invalid output format", fmt.Sprintf("Unknown format %q.", output), []string{
					"Use --output default or --output jsonl",
				})
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "all", "Filter by status: all, pending or verified")
	cmd.Flags().StringVarP(&output, "output", "o", "default", "Output format: default or jsonl")
	return cmd
}

func (a *app) reportsVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify REPORT_ID",
		Short: "Mark a report verified and credit the reporter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return printer.Error("Invalid report id", fmt.Sprintf("%q is not a report id.", args[0]), nil)
			}
			ctx := cmd.Context()
			svc, cleanup, err := a.openService(ctx, a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return printer.Error("Cannot open storage", err.Error(), nil)
			}
			defer cleanup()
			report, found, err := svc.VerifyReport(ctx, id)
			if err != nil {
				return printer.Error("Cannot verify report", err.Error(), nil)
			}
			if !found {
				return printer.Error("Laporan tidak ditemukan", fmt.Sprintf("No report has id %d.", id), []string{
					"Run 'wasteportal reports list' to see report ids",
				})
			}
			printer.Success(cmd.OutOrStdout(), "Laporan #%d %s (%s)\n", report.ID, domain.ReportVerified, *report.VerifiedAt)
			return nil
		},
	}
}
