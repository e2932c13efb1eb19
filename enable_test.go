package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/registry/entrypoint"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry[Invoker] {
	t.Helper()
	reg := New[Invoker]("renderers", append([]Option{WithSource(nil)}, opts...)...)
	for _, name := range []string{"a", "b", "c"} {
		_, err := reg.Register(name, echo(name))
		require.NoError(t, err)
	}
	return reg
}

func TestScopedEnableRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		before string
		opts   Options
		inner  string
		inOpts Options
	}{
		{name: "nothing active before", inner: "b", inOpts: Options{"x": 1}},
		{name: "switch plugin", before: "a", inner: "b", inOpts: Options{"x": 1}},
		{name: "switch plugin with options", before: "a", opts: Options{"y": "z"}, inner: "b", inOpts: Options{"x": 1}},
		{name: "same plugin other options", before: "a", opts: Options{"x": 1}, inner: "a", inOpts: Options{"x": 2}},
		{name: "no options", before: "c", inner: "a"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			reg := newTestRegistry(t)
			if tc.before != "" {
				_, err := reg.Enable(t.Context(), tc.before, tc.opts)
				r.NoError(err)
			}
			wantOpts := reg.Options()

			enabler, err := reg.Enable(t.Context(), tc.inner, tc.inOpts)
			r.NoError(err)
			r.Equal(tc.inner, reg.Active())
			r.Equal(len(tc.inOpts), len(reg.Options()))
			for k, v := range tc.inOpts {
				r.Equal(v, reg.Options()[k])
			}
			enabler.Restore()

			r.Equal(tc.before, reg.Active())
			r.Equal(wantOpts, reg.Options())
		})
	}
}

func TestEnableIsImmediate(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)

	_, err := reg.Enable(t.Context(), "a", Options{"x": 1})
	r.NoError(err)
	r.Equal("a", reg.Active())
	r.Equal(Options{"x": 1}, reg.Options())

	// options are replaced, not merged
	_, err = reg.Enable(t.Context(), "b", Options{"y": 2})
	r.NoError(err)
	r.Equal("b", reg.Active())
	r.Equal(Options{"y": 2}, reg.Options())
}

func TestEnableEmptyNameKeepsActivePlugin(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)

	_, err := reg.Enable(t.Context(), "b", Options{"x": 1})
	r.NoError(err)
	enabler, err := reg.Enable(t.Context(), "", Options{"x": 2})
	r.NoError(err)
	r.Equal("b", enabler.Name())
	r.Equal("b", reg.Active())
	r.Equal(Options{"x": 2}, reg.Options())

	enabler.Restore()
	r.Equal(Options{"x": 1}, reg.Options())
}

func TestEnableDoesNotModifyOptions(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t, WithGlobalSettings(Options{"renderer_mode": "png"}))
	opts := Options{"renderer_mode": "svg", "scale": 2}

	_, err := reg.Enable(t.Context(), "a", opts)
	r.NoError(err)
	r.Equal(Options{"renderer_mode": "svg", "scale": 2}, opts)

	opts["scale"] = 3
	r.Equal(Options{"scale": 2}, reg.Options())
}

func TestGlobalSettingsDiversion(t *testing.T) {
	r := require.New(t)
	reg := New[Invoker]("renderers", WithSource(nil), WithGlobalSettings(Options{"renderer_mode": nil}))
	_, err := reg.Register("X", echo("X"))
	r.NoError(err)
	_, err = reg.Register("Y", echo("Y"))
	r.NoError(err)

	_, err = reg.Enable(t.Context(), "X", Options{"renderer_mode": "svg", "scale": 2})
	r.NoError(err)
	r.Equal(Options{"scale": 2}, reg.Options())
	r.Equal("svg", reg.GlobalSettings()["renderer_mode"])

	_, err = reg.Enable(t.Context(), "Y", nil)
	r.NoError(err)
	r.Empty(reg.Options())
	r.Equal("svg", reg.GlobalSettings()["renderer_mode"])

	bound, err := reg.Get()
	r.NoError(err)
	r.NotContains(bound.Options, "renderer_mode")
}

func TestRestoreResetsGlobalSettings(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t, WithGlobalSettings(Options{"renderer_mode": "png"}))

	enabler, err := reg.Enable(t.Context(), "a", Options{"renderer_mode": "svg"})
	r.NoError(err)
	r.Equal("svg", reg.GlobalSettings()["renderer_mode"])

	r.NoError(enabler.Close())
	r.Equal("png", reg.GlobalSettings()["renderer_mode"])
}

func TestRestoreResetsPlugins(t *testing.T) {
	r := require.New(t)
	src := entrypoint.Static{
		{Group: "renderers", Name: "svg", Loader: func(context.Context) (any, error) { return echo("svg"), nil }},
	}
	reg := New[Invoker]("renderers", WithSource(src))

	enabler, err := reg.Enable(t.Context(), "svg", nil)
	r.NoError(err)
	_, err = reg.Register("later", echo("later"))
	r.NoError(err)
	r.Contains(reg.plugins, "svg")

	enabler.Restore()
	r.NotContains(reg.plugins, "svg")
	r.NotContains(reg.plugins, "later")
	r.Empty(reg.Active())
}

func TestRestoreOnlyOnce(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)

	enabler, err := reg.Enable(t.Context(), "a", nil)
	r.NoError(err)
	enabler.Restore()
	r.Empty(reg.Active())

	_, err = reg.Enable(t.Context(), "b", nil)
	r.NoError(err)
	enabler.Restore()
	r.Equal("b", reg.Active(), "a second restore must not change the registry")
}

func TestNestedEnablers(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)

	_, err := reg.Enable(t.Context(), "a", Options{"level": 0})
	r.NoError(err)

	outer, err := reg.Enable(t.Context(), "b", Options{"level": 1})
	r.NoError(err)
	inner, err := reg.Enable(t.Context(), "c", Options{"level": 2})
	r.NoError(err)
	r.Equal("c", reg.Active())

	inner.Restore()
	r.Equal("b", reg.Active())
	r.Equal(Options{"level": 1}, reg.Options())

	outer.Restore()
	r.Equal("a", reg.Active())
	r.Equal(Options{"level": 0}, reg.Options())
}

func TestEnableFailureLeavesStateUnchanged(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t, WithGlobalSettings(Options{"renderer_mode": "png"}))
	_, err := reg.Enable(t.Context(), "a", Options{"x": 1})
	r.NoError(err)

	enabler, err := reg.Enable(t.Context(), "ghost", Options{"renderer_mode": "svg", "x": 2})
	var notFound *NoSuchEntryPointError
	r.ErrorAs(err, &notFound)
	r.Nil(enabler)
	r.Equal("a", reg.Active())
	r.Equal(Options{"x": 1}, reg.Options())
	r.Equal("png", reg.GlobalSettings()["renderer_mode"])
}

func TestWith(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)
	_, err := reg.Enable(t.Context(), "a", nil)
	r.NoError(err)

	var out any
	err = reg.With(t.Context(), "b", Options{"x": 1}, func(ctx context.Context) error {
		r.Equal("b", reg.Active())
		bound, err := reg.Get()
		if err != nil {
			return err
		}
		out, err = bound.Invoke(ctx, nil)
		return err
	})
	r.NoError(err)
	r.Equal("bmap[x:1]", out)
	r.Equal("a", reg.Active())
	r.Empty(reg.Options())
}

func TestWithRestoresOnError(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)
	boom := errors.New("boom")

	err := reg.With(t.Context(), "b", nil, func(context.Context) error {
		return boom
	})
	r.ErrorIs(err, boom)
	r.Empty(reg.Active())

	err = reg.With(t.Context(), "ghost", nil, func(context.Context) error {
		r.Fail("must not be called")
		return nil
	})
	r.Error(err)
}

func TestWithRestoresOnPanic(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)
	_, err := reg.Enable(t.Context(), "a", nil)
	r.NoError(err)

	r.PanicsWithValue("boom", func() {
		_ = reg.With(t.Context(), "b", nil, func(context.Context) error {
			panic("boom")
		})
	})
	r.Equal("a", reg.Active())
}

func TestSetStateRejectsIncompleteSnapshot(t *testing.T) {
	r := require.New(t)
	reg := newTestRegistry(t)

	r.ErrorIs(reg.setState(nil), ErrInvalidState)
	s := reg.getState()
	s.globals = nil
	r.ErrorIs(reg.setState(s), ErrInvalidState)

	enabler := &Enabler[Invoker]{registry: reg, name: "a", original: s}
	r.Panics(enabler.Restore)
}

func TestEnablerString(t *testing.T) {
	reg := newTestRegistry(t, WithKind("RendererRegistry"))
	enabler, err := reg.Enable(t.Context(), "a", nil)
	require.NoError(t, err)
	require.Equal(t, `RendererRegistry.enable("a")`, enabler.String())
}
