package cli

import (
	"context"

	"github.com/arllen133/objstore"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Root       bool
	Verbose    bool
}

// NewRootCommand creates the root command of the objstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "objstore",
		Short: "Document store with lifecycle hooks",
		Long: `objstore stores schemaless documents grouped by class and runs the
configured lifecycle hooks around every create, read, update and delete.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.Root, "root", false, "run as root, bypassing root-only guards")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every query and hook chain")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSchemaCommand())

	return cmd
}

// loadConfig reads --config, or the defaults when it is unset.
func (o *RootOptions) loadConfig() (objstore.Config, error) {
	if o.ConfigPath == "" {
		return objstore.DefaultConfig(), nil
	}
	return objstore.LoadConfig(o.ConfigPath)
}

// openApp opens the configured store with logs going to the command's stderr.
func (o *RootOptions) openApp(ctx context.Context, cmd *cobra.Command) (*objstore.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.QueryLogging = true
		cfg.Hooks.LogChains = true
	}

	logger, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return objstore.Open(ctx, cfg, objstore.WithLogger(logger))
}
