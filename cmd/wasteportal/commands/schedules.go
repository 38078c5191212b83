package commands

import (
	"github.com/spf13/cobra"

	"wasteportal/internal/printer"
)

func (a *app) schedulesCommand() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Show the pickup schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.openService(cmd.Context(), a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return printer.Error("Cannot open storage", err.Error(), nil)
			}
			defer cleanup()
			if printer.Schedules(cmd.OutOrStdout(), svc.Schedules(region)) == 0 {
				printer.Warning(cmd.ErrOrStderr(), "no pickup slots for %q\n", region)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&region, "region", "r", "", "Only show one wilayah")
	return cmd
}

func (a *app) usersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List portal accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := a.openService(ctx, a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return printer.Error("Cannot open storage", err.Error(), nil)
			}
			defer cleanup()
			users, err := svc.Users().List(ctx)
			if err != nil {
				return printer.Error("Cannot read users", err.Error(), nil)
			}
			printer.Users(cmd.OutOrStdout(), users)
			return nil
		},
	}
}
