package list

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
	"gopkg.in/yaml.v3"

	"ocm.software/open-component-model/bindings/go/registry/cmd/internal/env"
	"ocm.software/open-component-model/bindings/go/registry/internal/flags/enum"
)

const (
	FlagGroup  = "group"
	FlagOutput = "output"

	OutputFormatTable = "table"
	OutputFormatYAML  = "yaml"
	OutputFormatJSON  = "json"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entry points published into a group, or into all groups.",
		Args:  cobra.ExactArgs(0),
		Example: `  # List all entry points.
  pluginregistry list

  # List the renderers found in a plugin directory as YAML.
  pluginregistry list --group example.renderer --plugin-directory ./plugins -o yaml
`,
		RunE:              ListEntryPoints,
		DisableAutoGenTag: true,
	}

	cmd.Flags().StringP(FlagGroup, "g", "", "entry point group to list, all groups if empty")
	enum.VarP(cmd.Flags(), FlagOutput, "o", []string{OutputFormatTable, OutputFormatYAML, OutputFormatJSON}, "output format of the entry point list")

	return cmd
}

// EntryPointInfo is the listed form of an entry point.
type EntryPointInfo struct {
	Group  string `json:"group"  yaml:"group"`
	Name   string `json:"name"   yaml:"name"`
	Value  string `json:"value"  yaml:"value"`
	Origin string `json:"origin" yaml:"origin"`
}

func ListEntryPoints(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)
	environment, err := env.FromContext(ctx)
	if err != nil {
		return err
	}

	output, err := enum.Get(cmd.Flags(), FlagOutput)
	if err != nil {
		return fmt.Errorf("getting output flag failed: %w", err)
	}
	group, err := cmd.Flags().GetString(FlagGroup)
	if err != nil {
		return fmt.Errorf("getting group flag failed: %w", err)
	}

	groups := []string{group}
	if group == "" {
		if groups, err = environment.Groups(ctx); err != nil {
			return fmt.Errorf("listing entry point groups failed: %w", err)
		}
	}

	source := environment.Source()
	var infos []EntryPointInfo
	for _, g := range groups {
		logger.DebugContext(ctx, "looking up entry points", "group", g)
		eps, err := source.Lookup(ctx, g)
		if err != nil {
			return fmt.Errorf("looking up entry points in group %q failed: %w", g, err)
		}
		for _, ep := range eps {
			infos = append(infos, EntryPointInfo{Group: ep.Group, Name: ep.Name, Value: ep.Value, Origin: ep.Origin})
		}
	}
	slices.SortStableFunc(infos, func(a, b EntryPointInfo) int {
		if c := strings.Compare(a.Group, b.Group); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	return render(cmd.OutOrStdout(), infos, output)
}

func render(w io.Writer, infos []EntryPointInfo, format string) error {
	switch format {
	case OutputFormatJSON:
		if infos == nil {
			infos = []EntryPointInfo{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(infos)
	case OutputFormatTable:
		return renderTable(w, infos)
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}

func renderTable(w io.Writer, infos []EntryPointInfo) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Group", "Name", "Value", "Origin"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.Group, info.Name, info.Value, info.Origin})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}
