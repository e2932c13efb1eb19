package registry

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/registry/entrypoint"
)

// Registry maps names to plugins of type T for one entry point group and tracks
// which plugin is active.
//
// Plugins are either registered explicitly through Register or discovered through the
// entry point source of the registry the first time they are enabled.
//
// A Registry is not safe for concurrent use.
type Registry[T any] struct {
	group     string
	kind      string
	source    entrypoint.Source
	typeCheck TypeCheck
	// errMessages maps plugin names to custom messages returned when their entry point is missing.
	errMessages map[string]string

	plugins    map[string]T
	activeName string
	active     T
	hasActive  bool
	options    Options
	// globals holds registry-wide settings. Enable options with a key present here
	// are stored here instead of being bound to the active plugin.
	globals Options
}

type config struct {
	kind        string
	source      entrypoint.Source
	typeCheck   TypeCheck
	globals     Options
	errMessages map[string]string
}

// Option configures a Registry on construction.
type Option func(*config)

// WithSource sets the entry point source used for discovery. Defaults to entrypoint.Default.
// A nil source disables discovery.
func WithSource(source entrypoint.Source) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithTypeCheck sets the check applied to values passed to Register. Defaults to Invocable,
// a nil check accepts every value. Plugins loaded from entry points are not checked.
func WithTypeCheck(check TypeCheck) Option {
	return func(c *config) {
		c.typeCheck = check
	}
}

// WithGlobalSettings sets the template of registry-wide settings. Its keys declare which enable
// options are global. The template is copied, later changes to it are not observed.
func WithGlobalSettings(template Options) Option {
	return func(c *config) {
		c.globals = template
	}
}

// WithEntryPointErrorMessages sets custom messages for plugin names whose entry point cannot be found.
func WithEntryPointErrorMessages(messages map[string]string) Option {
	return func(c *config) {
		c.errMessages = messages
	}
}

// WithKind sets the name of the registry used in its textual representation.
func WithKind(kind string) Option {
	return func(c *config) {
		c.kind = kind
	}
}

// New creates a registry for the entry point group.
func New[T any](group string, opts ...Option) *Registry[T] {
	c := &config{
		kind:      fmt.Sprintf("Registry[%v]", reflect.TypeFor[T]()),
		source:    entrypoint.Default,
		typeCheck: Invocable,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.typeCheck == nil {
		c.typeCheck = AcceptAll
	}

	return &Registry[T]{
		group:       group,
		kind:        c.kind,
		source:      c.source,
		typeCheck:   c.typeCheck,
		errMessages: maps.Clone(c.errMessages),
		plugins:     make(map[string]T),
		options:     make(Options),
		globals:     cloneOptions(c.globals),
	}
}

// Group returns the entry point group of the registry.
func (r *Registry[T]) Group() string {
	return r.group
}

// Register registers value under name and returns it.
//
// A nil value unregisters name instead and returns the removed plugin, or the zero value if
// name was not registered. Registering never changes the active plugin, even if name is active.
func (r *Registry[T]) Register(name string, value T) (T, error) {
	if isNil(value) {
		removed, _ := r.Unregister(name)
		return removed, nil
	}
	if err := r.typeCheck(value); err != nil {
		var zero T
		return zero, &TypeCheckError{Name: name, Value: value, Cause: err}
	}
	r.plugins[name] = value
	return value, nil
}

// Unregister removes name and returns the removed plugin.
func (r *Registry[T]) Unregister(name string) (T, bool) {
	removed, ok := r.plugins[name]
	delete(r.plugins, name)
	return removed, ok
}

// Names returns the sorted names of all registered plugins and all plugins published
// into the group of the registry. Entry points are not loaded.
func (r *Registry[T]) Names(ctx context.Context) ([]string, error) {
	names := make(map[string]struct{}, len(r.plugins))
	for name := range r.plugins {
		names[name] = struct{}{}
	}
	eps, err := r.lookup(ctx)
	if err != nil {
		return nil, err
	}
	for _, ep := range eps {
		names[ep.Name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names)), nil
}

// Active returns the name of the active plugin, or an empty string if no plugin is active.
func (r *Registry[T]) Active() string {
	return r.activeName
}

// Options returns a copy of the options bound to the active plugin.
func (r *Registry[T]) Options() Options {
	return maps.Clone(r.options)
}

// GlobalSettings returns a copy of the registry-wide settings.
func (r *Registry[T]) GlobalSettings() Options {
	return maps.Clone(r.globals)
}

// Get returns the active plugin.
//
// If options are bound, the returned Bound carries a copy of them and ErrInvalidState is
// returned if no plugin is active. Without options, Get returns nil if no plugin is active.
func (r *Registry[T]) Get() (*Bound[T], error) {
	if len(r.options) > 0 {
		if !r.hasActive {
			return nil, fmt.Errorf("%w: nothing to bind options %v to", ErrInvalidState, slices.Sorted(maps.Keys(r.options)))
		}
		return &Bound[T]{Plugin: r.active, Options: maps.Clone(r.options)}, nil
	}
	if !r.hasActive {
		return nil, nil
	}
	return &Bound[T]{Plugin: r.active}, nil
}

func (r *Registry[T]) String() string {
	names, err := r.Names(context.Background())
	if err != nil {
		names = slices.Sorted(maps.Keys(r.plugins))
	}
	return fmt.Sprintf("%s(active=%q, registered=%q)", r.kind, r.activeName, names)
}

func (r *Registry[T]) lookup(ctx context.Context) ([]entrypoint.EntryPoint, error) {
	if r.source == nil {
		return nil, nil
	}
	eps, err := r.source.Lookup(ctx, r.group)
	if err != nil {
		return nil, fmt.Errorf("failed to look up entry points in group %q: %w", r.group, err)
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "looked up entry points", "group", r.group, "count", len(eps))
	return eps, nil
}

// load resolves name through the entry point source and caches the plugin.
func (r *Registry[T]) load(ctx context.Context, name string) error {
	eps, err := r.lookup(ctx)
	if err != nil {
		return err
	}
	matches := entrypoint.Select(eps, name)
	if len(matches) != 1 {
		notFound := &NoSuchEntryPointError{Group: r.group, Name: name, Found: len(matches)}
		if msg, ok := r.errMessages[name]; ok {
			return &ConfigurationError{Message: msg, Cause: notFound}
		}
		return notFound
	}

	ep := matches[0]
	loaded, err := ep.Load(ctx)
	if err != nil {
		return &LoadError{Group: r.group, Name: name, Cause: err}
	}
	plugin, ok := loaded.(T)
	if !ok {
		return &LoadError{Group: r.group, Name: name, Cause: fmt.Errorf("loaded value of type %T is not a %v", loaded, reflect.TypeFor[T]())}
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "loaded plugin from entry point", "group", r.group, "name", name, "origin", ep.Origin)

	// loaded plugins bypass the type check.
	r.plugins[name] = plugin
	return nil
}

func cloneOptions(opts Options) Options {
	if opts == nil {
		return make(Options)
	}
	return maps.Clone(opts)
}
