// Package env carries the configuration and plugin sources shared by all commands.
package env

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"ocm.software/open-component-model/bindings/go/registry/config"
	"ocm.software/open-component-model/bindings/go/registry/entrypoint"
)

const (
	ConfigFlag          = "config"
	PluginDirectoryFlag = "plugin-directory"
)

// Environment is set up by the root command before any sub-command runs.
type Environment struct {
	Config    *config.Config
	Catalog   *entrypoint.Catalog
	Directory *entrypoint.Directory
}

// New creates an environment discovering plugins in the catalog and in the
// plugin directories of cfg.
func New(cfg *config.Config, catalog *entrypoint.Catalog) *Environment {
	return &Environment{
		Config:    cfg,
		Catalog:   catalog,
		Directory: entrypoint.NewDirectory(cfg.PluginDirectories, entrypoint.WithSymbols(catalog)),
	}
}

// Source returns the entry point source combining the catalog and the plugin directories.
func (e *Environment) Source() entrypoint.Source {
	return entrypoint.Multi(e.Catalog, e.Directory)
}

// Groups returns the sorted groups any entry point is published into.
func (e *Environment) Groups(ctx context.Context) ([]string, error) {
	groups := make(map[string]struct{})
	for _, group := range e.Catalog.Groups() {
		groups[group] = struct{}{}
	}
	manifests, err := e.Directory.Manifests(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range manifests {
		for group := range m.EntryPoints {
			groups[group] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(groups)), nil
}

type ctxKey struct{}

// WithEnvironment stores environment in ctx.
func WithEnvironment(ctx context.Context, environment *Environment) context.Context {
	return context.WithValue(ctx, ctxKey{}, environment)
}

// FromContext returns the environment stored in ctx.
func FromContext(ctx context.Context) (*Environment, error) {
	environment, ok := ctx.Value(ctxKey{}).(*Environment)
	if !ok || environment == nil {
		return nil, fmt.Errorf("no plugin environment found in context")
	}
	return environment, nil
}
