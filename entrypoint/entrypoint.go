package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// LoadFunc resolves an entry point into the object it references.
type LoadFunc func(ctx context.Context) (any, error)

// EntryPoint is a named reference published into a discovery group.
// Loading it resolves the referenced object.
type EntryPoint struct {
	// Group is the discovery group the entry point was published into.
	Group string `json:"group"`
	// Name is the name plugins are registered and enabled under.
	Name string `json:"name"`
	// Value is a human-readable form of the reference, such as a symbol or a command line.
	Value string `json:"value,omitempty"`
	// Origin names where the entry point was declared, for example a manifest path.
	Origin string `json:"origin,omitempty"`

	// Loader resolves the entry point. It is called by Load.
	Loader LoadFunc `json:"-"`
}

// Load resolves the entry point into the object it references.
func (e EntryPoint) Load(ctx context.Context) (any, error) {
	if e.Loader == nil {
		return nil, fmt.Errorf("entry point %q in group %q has no loader", e.Name, e.Group)
	}
	return e.Loader(ctx)
}

func (e EntryPoint) String() string {
	return fmt.Sprintf("%s/%s", e.Group, e.Name)
}

// Source looks up the entry points published into a group.
// Lookup must return an empty result (not an error) if nothing is published into the group.
type Source interface {
	Lookup(ctx context.Context, group string) ([]EntryPoint, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, group string) ([]EntryPoint, error)

func (f SourceFunc) Lookup(ctx context.Context, group string) ([]EntryPoint, error) {
	return f(ctx, group)
}

// Static is a fixed list of entry points.
type Static []EntryPoint

func (s Static) Lookup(_ context.Context, group string) ([]EntryPoint, error) {
	var found []EntryPoint
	for _, ep := range s {
		if ep.Group == group {
			found = append(found, ep)
		}
	}
	return found, nil
}

// Multi combines sources. Results are concatenated in source order,
// lookup errors of all sources are joined.
func Multi(sources ...Source) Source {
	sources = slices.DeleteFunc(slices.Clone(sources), func(s Source) bool { return s == nil })
	return SourceFunc(func(ctx context.Context, group string) ([]EntryPoint, error) {
		var (
			all  []EntryPoint
			errs error
		)
		for _, source := range sources {
			eps, err := source.Lookup(ctx, group)
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			all = append(all, eps...)
		}
		if errs != nil {
			return nil, errs
		}
		return all, nil
	})
}

// Select returns the entry points with the given name.
func Select(eps []EntryPoint, name string) []EntryPoint {
	var found []EntryPoint
	for _, ep := range eps {
		if ep.Name == name {
			found = append(found, ep)
		}
	}
	return found
}

// Names returns the names of the given entry points in the order they appear.
func Names(eps []EntryPoint) []string {
	names := make([]string, 0, len(eps))
	for _, ep := range eps {
		names = append(names, ep.Name)
	}
	return names
}
