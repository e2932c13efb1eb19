package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	for _, tc := range []struct {
		err  error
		want string
	}{
		{
			err:  &NoSuchEntryPointError{Group: "renderers", Name: "ghost"},
			want: `no "ghost" entry point found in group "renderers"`,
		},
		{
			err:  &NoSuchEntryPointError{Group: "renderers", Name: "dup", Found: 2},
			want: `2 "dup" entry points found in group "renderers", expected exactly one`,
		},
		{
			err:  &TypeCheckError{Name: "svg", Value: 1, Cause: cause},
			want: `plugin "svg" of type int rejected by type check: boom`,
		},
		{
			err:  &LoadError{Group: "renderers", Name: "svg", Cause: cause},
			want: `failed to load entry point "svg" in group "renderers": boom`,
		},
		{
			err:  &ConfigurationError{Message: "install the svg extra", Cause: cause},
			want: "install the svg extra",
		},
	} {
		t.Run(tc.want, func(t *testing.T) {
			assert.EqualError(t, tc.err, tc.want)
		})
	}
}
