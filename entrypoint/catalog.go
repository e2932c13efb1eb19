package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// OriginBuiltin is the origin of entry points registered in a Catalog.
const OriginBuiltin = "builtin"

var (
	// ErrSymbolNotFound is returned when a symbol reference cannot be resolved.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrSymbolAlreadyProvided is returned when a symbol reference is provided twice.
	ErrSymbolAlreadyProvided = errors.New("symbol already provided")
)

// Catalog is a table of entry points and symbols compiled into the process.
// Packages fill it from their init functions, which is why it is safe for concurrent use.
//
// The same name may be registered more than once into a group. Registries refuse to enable
// such an ambiguous name.
type Catalog struct {
	mu      sync.RWMutex
	groups  map[string][]EntryPoint
	symbols map[string]any
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		groups:  make(map[string][]EntryPoint),
		symbols: make(map[string]any),
	}
}

// Default is the catalog used by registries that are not configured with another source.
var Default = NewCatalog()

// Register publishes an entry point into a group.
func (c *Catalog) Register(group, name string, load LoadFunc) error {
	if load == nil {
		return fmt.Errorf("invalid entry point %q in group %q: loader is required", name, group)
	}
	return c.register(EntryPoint{
		Group:  group,
		Name:   name,
		Value:  fmt.Sprintf("%T", load),
		Origin: OriginBuiltin,
		Loader: load,
	})
}

// RegisterValue publishes an entry point that loads to v.
func (c *Catalog) RegisterValue(group, name string, v any) error {
	if v == nil {
		return fmt.Errorf("invalid entry point %q in group %q: value is nil", name, group)
	}
	return c.register(EntryPoint{
		Group:  group,
		Name:   name,
		Value:  fmt.Sprintf("%T", v),
		Origin: OriginBuiltin,
		Loader: func(context.Context) (any, error) { return v, nil },
	})
}

func (c *Catalog) register(ep EntryPoint) error {
	if ep.Group == "" || ep.Name == "" {
		return fmt.Errorf("invalid entry point %q in group %q: group and name are required", ep.Name, ep.Group)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[ep.Group] = append(c.groups[ep.Group], ep)
	return nil
}

// Provide makes v resolvable under ref. Manifests found by a Directory reference
// provided symbols through their value field.
func (c *Catalog) Provide(ref string, v any) error {
	if ref == "" || v == nil {
		return fmt.Errorf("invalid symbol %q: reference and value are required", ref)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.symbols[ref]; exists {
		return fmt.Errorf("%w: %q", ErrSymbolAlreadyProvided, ref)
	}
	c.symbols[ref] = v
	return nil
}

// Resolve returns the symbol provided under ref.
func (c *Catalog) Resolve(ref string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.symbols[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSymbolNotFound, ref)
	}
	return v, nil
}

// Lookup returns a copy of the entry points registered into group in registration order.
func (c *Catalog) Lookup(_ context.Context, group string) ([]EntryPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.groups[group]), nil
}

// Groups returns the names of all groups with registered entry points, sorted.
func (c *Catalog) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.groups))
}

// Register publishes an entry point into a group of the Default catalog.
func Register(group, name string, load LoadFunc) error {
	return Default.Register(group, name, load)
}

// MustRegister is Register but panics on error. Useful from init functions.
func MustRegister(group, name string, load LoadFunc) {
	if err := Register(group, name, load); err != nil {
		panic(err)
	}
}

// RegisterValue publishes an entry point loading to v into a group of the Default catalog.
func RegisterValue(group, name string, v any) error {
	return Default.RegisterValue(group, name, v)
}

// MustRegisterValue is RegisterValue but panics on error.
func MustRegisterValue(group, name string, v any) {
	if err := RegisterValue(group, name, v); err != nil {
		panic(err)
	}
}

// Provide makes v resolvable under ref in the Default catalog.
func Provide(ref string, v any) error {
	return Default.Provide(ref, v)
}

// MustProvide is Provide but panics on error.
func MustProvide(ref string, v any) {
	if err := Provide(ref, v); err != nil {
		panic(err)
	}
}
