package registry

import (
	"context"
	"fmt"
	"maps"

	slogcontext "github.com/veqryn/slog-context"
)

// state is a value copy of everything Enable can change.
type state[T any] struct {
	active     T
	hasActive  bool
	activeName string
	plugins    map[string]T
	options    Options
	globals    Options
}

func (r *Registry[T]) getState() *state[T] {
	return &state[T]{
		active:     r.active,
		hasActive:  r.hasActive,
		activeName: r.activeName,
		plugins:    maps.Clone(r.plugins),
		options:    maps.Clone(r.options),
		globals:    maps.Clone(r.globals),
	}
}

func (r *Registry[T]) setState(s *state[T]) error {
	if s == nil || s.plugins == nil || s.options == nil || s.globals == nil {
		return fmt.Errorf("%w: incomplete snapshot", ErrInvalidState)
	}
	r.active = s.active
	r.hasActive = s.hasActive
	r.activeName = s.activeName
	// the snapshot may be restored more than once, so it must stay unaliased.
	r.plugins = maps.Clone(s.plugins)
	r.options = maps.Clone(s.options)
	r.globals = maps.Clone(s.globals)
	return nil
}

// Enable activates the plugin registered or published under name and binds opts to it.
// An empty name re-enables the active plugin, which is useful to change its options only.
//
// Plugins not yet registered are looked up in the entry point group of the registry. Exactly one
// entry point must match name, otherwise a *NoSuchEntryPointError is returned, or a *ConfigurationError
// if a custom message is configured for name. The loaded plugin is cached, so it is loaded only once.
//
// Options whose key is a global setting update the global settings instead. All other options
// replace the options bound to the previously active plugin. opts is not modified.
//
// The activation takes effect immediately. The returned Enabler restores the state the registry
// had before the call, which allows scoped use:
//
//	enabler, err := renderers.Enable(ctx, "svg", registry.Options{"scale": 2})
//	if err != nil {
//		return err
//	}
//	defer enabler.Restore()
//
// If the Enabler is discarded, the activation persists. On error the registry is unchanged.
func (r *Registry[T]) Enable(ctx context.Context, name string, opts Options) (*Enabler[T], error) {
	if name == "" {
		name = r.activeName
	}
	original := r.getState()
	if err := r.enable(ctx, name, opts); err != nil {
		return nil, err
	}
	return &Enabler[T]{
		registry: r,
		name:     name,
		original: original,
	}, nil
}

// With enables name with opts, runs fn and restores the previous state of the registry
// afterwards, also if fn fails or panics.
func (r *Registry[T]) With(ctx context.Context, name string, opts Options, fn func(ctx context.Context) error) error {
	enabler, err := r.Enable(ctx, name, opts)
	if err != nil {
		return err
	}
	defer enabler.Restore()
	return fn(ctx)
}

func (r *Registry[T]) enable(ctx context.Context, name string, opts Options) error {
	if _, ok := r.plugins[name]; !ok {
		if err := r.load(ctx, name); err != nil {
			return err
		}
	}

	r.activeName = name
	r.active = r.plugins[name]
	r.hasActive = true

	options := make(Options, len(opts))
	for key, value := range opts {
		if _, global := r.globals[key]; global {
			r.globals[key] = value
			continue
		}
		options[key] = value
	}
	r.options = options

	slogcontext.FromCtx(ctx).DebugContext(ctx, "enabled plugin", "group", r.group, "name", name)
	return nil
}

// Enabler is returned by Registry.Enable and restores the registry to the state it had
// before the call. Nested enablers of the same registry must be restored in reverse order.
type Enabler[T any] struct {
	registry *Registry[T]
	name     string
	original *state[T]
	restored bool
}

// Restore resets the registry to the state it had before Enable was called.
// Only the first call has an effect. It panics only if the snapshot held by the
// Enabler was built by hand or corrupted, never for one taken by Enable.
func (e *Enabler[T]) Restore() {
	if e.restored {
		return
	}
	e.restored = true
	if err := e.registry.setState(e.original); err != nil {
		panic(err)
	}
}

// Close calls Restore. It always returns nil.
func (e *Enabler[T]) Close() error {
	e.Restore()
	return nil
}

// Name returns the name of the plugin that was enabled.
func (e *Enabler[T]) Name() string {
	return e.name
}

func (e *Enabler[T]) String() string {
	return fmt.Sprintf("%s.enable(%q)", e.registry.kind, e.name)
}
