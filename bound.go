package registry

import (
	"context"
	"fmt"
	"maps"
)

// Options are keyword options passed to a plugin.
type Options = map[string]any

// Invoker is a plugin that can be called with keyword options.
type Invoker interface {
	Invoke(ctx context.Context, opts Options) (any, error)
}

// InvokerFunc adapts a function to an Invoker.
type InvokerFunc func(ctx context.Context, opts Options) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context, opts Options) (any, error) {
	return f(ctx, opts)
}

// Call invokes v with opts. v must be an Invoker or a func(context.Context, Options) (any, error).
func Call(ctx context.Context, v any, opts Options) (any, error) {
	switch fn := v.(type) {
	case Invoker:
		return fn.Invoke(ctx, opts)
	case func(context.Context, Options) (any, error):
		return fn(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotInvocable, v)
	}
}

// Bound is the active plugin of a registry, pre-bound to the options it was enabled with.
type Bound[T any] struct {
	Plugin T
	// Options are the bound options. They are empty if the plugin was enabled without options.
	Options Options
}

// Invoke calls the plugin with the bound options merged with extra.
// Keys in extra take precedence over bound keys.
func (b *Bound[T]) Invoke(ctx context.Context, extra Options) (any, error) {
	merged := make(Options, len(b.Options)+len(extra))
	maps.Copy(merged, b.Options)
	maps.Copy(merged, extra)
	return Call(ctx, b.Plugin, merged)
}
