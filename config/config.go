// Package config loads the plugin registry configuration file.
//
// The file declares where plugin manifests are discovered and which plugin is enabled
// by default per entry point group:
//
//	pluginDirectories:
//	  - ~/.config/pluginregistry/plugins
//	registries:
//	  - group: example.renderer
//	    enable: svg
//	    options:
//	      scale: 2
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	slogcontext "github.com/veqryn/slog-context"
	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/registry"
	"ocm.software/open-component-model/bindings/go/registry/entrypoint"
)

// EnvConfigPath is the environment variable consulted for the configuration file path.
const EnvConfigPath = "PLUGINREGISTRY_CONFIG"

// Config is the registry configuration.
type Config struct {
	// PluginDirectories are searched for plugin manifests.
	PluginDirectories []string `json:"pluginDirectories,omitempty"`
	// Registries holds the defaults per entry point group. A group may appear only once.
	Registries []RegistryConfig `json:"registries,omitempty"`
}

// RegistryConfig is the default of one registry.
type RegistryConfig struct {
	Group string `json:"group"`
	// Enable is the name of the plugin enabled by Apply.
	Enable  string           `json:"enable,omitempty"`
	Options registry.Options `json:"options,omitempty"`
}

// Load decodes a configuration from YAML or JSON.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads the configuration at path. A leading ~ in path and in the
// configured plugin directories is expanded to the home directory.
func LoadFile(path string) (*Config, error) {
	path, err := entrypoint.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	for i, dir := range cfg.PluginDirectories {
		if cfg.PluginDirectories[i], err = entrypoint.ExpandHome(dir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Lookup returns the configuration at path. If path is empty, the path in EnvConfigPath is used.
// Without any path, Lookup returns an empty configuration.
func Lookup(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		slogcontext.FromCtx(ctx).DebugContext(ctx, "no configuration file given, using defaults")
		return &Config{}, nil
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "loading configuration", "path", path)
	return LoadFile(path)
}

// Validate checks that every registry entry names a group and that groups are unique.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(c.Registries))
	for i, reg := range c.Registries {
		if reg.Group == "" {
			errs = append(errs, fmt.Errorf("registries[%d]: group is required", i))
			continue
		}
		if _, ok := seen[reg.Group]; ok {
			errs = append(errs, fmt.Errorf("registries[%d]: duplicate group %q", i, reg.Group))
		}
		seen[reg.Group] = struct{}{}
		if reg.Enable == "" && len(reg.Options) > 0 {
			errs = append(errs, fmt.Errorf("registries[%d]: options for group %q require a plugin to enable", i, reg.Group))
		}
	}
	return errors.Join(errs...)
}

// Registry returns the defaults of group, or nil if group is not configured.
func (c *Config) Registry(group string) *RegistryConfig {
	if c == nil {
		return nil
	}
	for i := range c.Registries {
		if c.Registries[i].Group == group {
			return &c.Registries[i]
		}
	}
	return nil
}

// Merge merges the provided configurations. Plugin directories are concatenated,
// a registry entry of a later configuration replaces the entry of the same group.
func Merge(configs ...*Config) *Config {
	merged := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		merged.PluginDirectories = append(merged.PluginDirectories, cfg.PluginDirectories...)
		for _, reg := range cfg.Registries {
			if existing := merged.Registry(reg.Group); existing != nil {
				*existing = reg
				continue
			}
			merged.Registries = append(merged.Registries, reg)
		}
	}
	return merged
}

// Apply enables the configured default plugin of the group of reg.
// It does nothing if the group is not configured or names no plugin.
func Apply[T any](ctx context.Context, reg *registry.Registry[T], cfg *Config) error {
	defaults := cfg.Registry(reg.Group())
	if defaults == nil || defaults.Enable == "" {
		return nil
	}
	if _, err := reg.Enable(ctx, defaults.Enable, defaults.Options); err != nil {
		return fmt.Errorf("failed to enable configured plugin %q in group %q: %w", defaults.Enable, defaults.Group, err)
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "enabled configured plugin", "group", defaults.Group, "name", defaults.Enable)
	return nil
}
