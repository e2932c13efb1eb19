// Package enum provides a string flag restricted to a fixed set of values.
// The first value is the default.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"ocm.software/open-component-model/bindings/go/registry/internal/flags"
)

const Type = "enum"

type Flag struct {
	value   string
	allowed []string
}

func (f *Flag) String() string {
	return f.value
}

func (f *Flag) Set(s string) error {
	if !slices.Contains(f.allowed, s) {
		return fmt.Errorf("must be one of %s", strings.Join(f.allowed, ", "))
	}
	f.value = s
	return nil
}

func (f *Flag) Type() string {
	return Type
}

// Allowed returns the values the flag accepts.
func (f *Flag) Allowed() []string {
	return slices.Clone(f.allowed)
}

func newFlag(allowed []string) *Flag {
	if len(allowed) == 0 {
		panic("enum flag requires at least one allowed value")
	}
	return &Flag{value: allowed[0], allowed: slices.Clone(allowed)}
}

func Var(f *pflag.FlagSet, name string, allowed []string, usage string) {
	f.Var(newFlag(allowed), name, usage)
}

func VarP(f *pflag.FlagSet, name, shorthand string, allowed []string, usage string) {
	f.VarP(newFlag(allowed), name, shorthand, usage)
}

// Get returns the value of the enum flag name.
func Get(f *pflag.FlagSet, name string) (string, error) {
	return flags.Get(f, name, Type, func(sval string) (string, error) {
		return sval, nil
	})
}
