package invoke

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"gopkg.in/yaml.v3"

	"ocm.software/open-component-model/bindings/go/registry"
	"ocm.software/open-component-model/bindings/go/registry/cmd/internal/env"
	"ocm.software/open-component-model/bindings/go/registry/config"
	"ocm.software/open-component-model/bindings/go/registry/internal/flags/enum"
)

const (
	FlagGroup  = "group"
	FlagOption = "option"
	FlagOutput = "output"

	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

// ErrNoPlugin is returned if neither the command line nor the configuration names a plugin.
var ErrNoPlugin = errors.New("no plugin to invoke")

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke [name]",
		Short: "Enable a plugin of a group and invoke it with options.",
		Long: `Enables the named plugin, or the plugin configured for the group, and invokes it.
Options are given as key=value pairs, values are parsed as YAML scalars.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  # Invoke the svg renderer with a scale option.
  pluginregistry invoke svg --group example.renderer --option scale=2
`,
		RunE:              Invoke,
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagGroup, "g", "", "entry point group of the plugin")
	cmd.Flags().StringArray(FlagOption, nil, "option passed to the plugin as key=value, may be repeated")
	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{OutputFormatYAML, OutputFormatJSON}, "output format of the result")
	_ = cmd.MarkFlagRequired(FlagGroup)

	return cmd
}

func Invoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)
	environment, err := env.FromContext(ctx)
	if err != nil {
		return err
	}

	group, err := cmd.Flags().GetString(FlagGroup)
	if err != nil {
		return fmt.Errorf("getting group flag failed: %w", err)
	}
	rawOptions, err := cmd.Flags().GetStringArray(FlagOption)
	if err != nil {
		return fmt.Errorf("getting option flag failed: %w", err)
	}
	opts, err := ParseOptions(rawOptions)
	if err != nil {
		return err
	}
	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}

	// plain funcs published into the catalog are as invocable as Invokers, Bound.Invoke dispatches through Call.
	plugins := registry.New[any](group, registry.WithSource(environment.Source()))
	if err := config.Apply(ctx, plugins, environment.Config); err != nil {
		return err
	}

	var extra registry.Options
	switch {
	case len(args) == 1:
		if _, err := plugins.Enable(ctx, args[0], opts); err != nil {
			return fmt.Errorf("enabling plugin failed: %w", err)
		}
	case plugins.Active() != "":
		// keep the configured options and pass the command line options on top
		extra = opts
	default:
		return fmt.Errorf("%w: give a plugin name or configure one for group %q", ErrNoPlugin, group)
	}

	bound, err := plugins.Get()
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "invoking plugin", "group", group, "name", plugins.Active())
	result, err := bound.Invoke(ctx, extra)
	if err != nil {
		return fmt.Errorf("plugin %q failed: %w", plugins.Active(), err)
	}

	return render(cmd.OutOrStdout(), result, output)
}

// ParseOptions parses key=value pairs. Values are decoded as YAML so that numbers
// and booleans keep their type. A value that is not valid YAML is kept as string.
func ParseOptions(pairs []string) (registry.Options, error) {
	opts := make(registry.Options, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q, expected key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		opts[key] = value
	}
	return opts, nil
}

func render(w io.Writer, result any, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(result)
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
