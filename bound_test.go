package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	r := require.New(t)
	fn := func(_ context.Context, opts Options) (any, error) { return opts["a"], nil }

	out, err := Call(t.Context(), fn, Options{"a": 1})
	r.NoError(err)
	r.Equal(1, out)

	out, err = Call(t.Context(), InvokerFunc(fn), Options{"a": 2})
	r.NoError(err)
	r.Equal(2, out)

	_, err = Call(t.Context(), "text", nil)
	r.ErrorIs(err, ErrNotInvocable)
}

func TestBoundInvoke(t *testing.T) {
	r := require.New(t)
	var got Options
	b := &Bound[InvokerFunc]{
		Plugin: func(_ context.Context, opts Options) (any, error) {
			got = opts
			return len(opts), nil
		},
		Options: Options{"a": 1, "b": 1},
	}

	out, err := b.Invoke(t.Context(), Options{"b": 2, "c": 3})
	r.NoError(err)
	r.Equal(3, out)
	r.Equal(Options{"a": 1, "b": 2, "c": 3}, got)
	r.Equal(Options{"a": 1, "b": 1}, b.Options, "bound options must not change")

	_, err = b.Invoke(t.Context(), nil)
	r.NoError(err)
	r.Equal(Options{"a": 1, "b": 1}, got)
}
