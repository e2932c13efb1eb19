package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/registry/cmd/internal/env"
	"ocm.software/open-component-model/bindings/go/registry/cmd/invoke"
	"ocm.software/open-component-model/bindings/go/registry/cmd/list"
	"ocm.software/open-component-model/bindings/go/registry/config"
	"ocm.software/open-component-model/bindings/go/registry/entrypoint"
	"ocm.software/open-component-model/bindings/go/registry/log"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pluginregistry [sub-command]",
		Short: "Inspect and invoke plugins published into entry point groups",
		Long: `pluginregistry lists the entry points compiled into the binary and declared by
  plugin manifests (plugin.yaml) in the plugin directories, and invokes them
  through a plugin registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setup,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(env.ConfigFlag, "", fmt.Sprintf("path to the configuration file, defaults to $%s", config.EnvConfigPath))
	cmd.PersistentFlags().StringSlice(env.PluginDirectoryFlag, nil, "additional directories to discover plugin manifests in")
	log.RegisterLoggingFlags(cmd)

	cmd.AddCommand(list.New())
	cmd.AddCommand(invoke.New())
	return cmd
}

func setup(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	ctx := slogcontext.NewCtx(cmd.Context(), logger)

	path, err := cmd.Flags().GetString(env.ConfigFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Lookup(ctx, path)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	dirs, err := cmd.Flags().GetStringSlice(env.PluginDirectoryFlag)
	if err != nil {
		return err
	}
	cfg = config.Merge(cfg, &config.Config{PluginDirectories: dirs})

	logger.DebugContext(ctx, "plugin environment ready", "directories", cfg.PluginDirectories)
	cmd.SetContext(env.WithEnvironment(ctx, env.New(cfg, entrypoint.Default)))
	return nil
}
