package commands

import (
	"time"

	"github.com/spf13/cobra"

	"wasteportal/internal/printer"
)

func (a *app) photosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Maintain stored report photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	var grace time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored photos no report refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := a.openService(ctx, a.logger(cmd.ErrOrStderr()))
			if err != nil {
				return printer.Error("Cannot open storage", err.Error(), nil)
			}
			defer cleanup()
			if !svc.Photos().Enabled() {
				printer.Warning(cmd.ErrOrStderr(), "no blob driver configured, photos are stored inline\n")
				return nil
			}
			n, err := svc.PrunePhotos(ctx, grace)
			if err != nil {
				return printer.Error("Cannot prune photos", err.Error(), nil)
			}
			printer.Success(cmd.OutOrStdout(), "%d orphaned photos deleted\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&grace, "grace", time.Hour, "Keep photos younger than this")
	cmd.AddCommand(prune)
	return cmd
}
