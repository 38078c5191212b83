// Package commands implements the wasteportal command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"wasteportal/internal/blob"
	"wasteportal/internal/config"
	"wasteportal/internal/core"
	"wasteportal/internal/kv"
	"wasteportal/internal/printer"
)

var versionString = "dev"

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// app carries the global flags and the loaded configuration.
type app struct {
	configPath string
	envFile    string
	debug      bool
	cfg        config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wasteportal",
		Short: "Municipal waste management portal",
		Long: `wasteportal serves the resident and environmental agency dashboards of
the waste management portal and offers maintenance commands over the
same storage.

Configuration is read from defaults, an optional YAML file, an optional
.env file and WASTEPORTAL_* environment variables, in that order.`,
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, a.envFile)
			if err != nil {
				return printer.Error("Invalid configuration", err.Error(), []string{
					"Check the file passed with --config and the WASTEPORTAL_* variables",
				})
			}
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log debug lines")

	root.AddCommand(a.serveCommand(), a.reportsCommand(), a.schedulesCommand(), a.usersCommand(), a.photosCommand())
	return root
}

func (a *app) logger(w io.Writer) core.Logger {
	return core.NewStdLogger(log.New(w, "", log.LstdFlags), a.debug)
}

// openService opens the configured storage and builds the service over
// it. The returned cleanup releases both.
func (a *app) openService(ctx context.Context, logger core.Logger, extra ...core.Option) (*core.Service, func(), error) {
	store, err := kv.Open(ctx, a.cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	blobs, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("open blob store: %w", err)
	}
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithCredentialCost(a.cfg.Auth.BcryptCost),
		core.WithDelays(a.cfg.Auth.LoginDelay, a.cfg.Auth.SubmitDelay),
		core.WithRewards(a.cfg.Rewards.PointsPerVerifiedReport, a.cfg.Rewards.BalancePerPoint),
	}
	if blobs != nil {
		opts = append(opts, core.WithBlobStore(blobs))
	}
	svc, err := core.NewService(ctx, store, append(opts, extra...)...)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("load reports: %w", err)
	}
	cleanup := func() {
		svc.Close()
		if err := store.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}
	return svc, cleanup, nil
}
