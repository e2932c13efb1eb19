package entrypoint

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

// ManifestFileNames are the file names a Directory treats as plugin manifests.
var ManifestFileNames = []string{"plugin.yaml", "plugin.yml"}

//go:embed manifest.schema.json
var manifestSchema []byte

const manifestSchemaURL = "manifest.schema.json"

var compiledManifestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(manifestSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", manifestSchemaURL, err)
	}
	sch, err := c.Compile(manifestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", manifestSchemaURL, err)
	}
	return sch, nil
})

// Manifest is the content of a plugin.yaml file. It declares the entry points
// a plugin distribution publishes per group.
type Manifest struct {
	Name        string                      `json:"name"`
	Description string                      `json:"description,omitempty"`
	EntryPoints map[string][]EntryPointSpec `json:"entryPoints"`

	// Path is the file the manifest was read from. Relative commands are resolved against its directory.
	Path string `json:"-"`
}

// EntryPointSpec declares a single entry point. Exactly one of Value and Command is set.
type EntryPointSpec struct {
	Name string `json:"name"`
	// Value references a symbol provided to a Catalog.
	Value string `json:"value,omitempty"`
	// Command is an executable and its arguments. A relative executable is resolved against
	// the directory of the manifest.
	Command []string `json:"command,omitempty"`
}

// Reference returns the human-readable form of the referenced object.
func (s EntryPointSpec) Reference() string {
	if s.Value != "" {
		return s.Value
	}
	return strings.Join(s.Command, " ")
}

// DecodeManifest decodes and validates a manifest given as YAML or JSON.
func DecodeManifest(data []byte) (*Manifest, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert manifest to json: %w", err)
	}

	sch, err := compiledManifestSchema()
	if err != nil {
		return nil, err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// ReadManifest reads and decodes the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// EntryPointsFor turns the specs declared for group into entry points. Values are resolved
// through symbols, commands become ExecPlugins.
func (m *Manifest) EntryPointsFor(group string, symbols *Catalog) []EntryPoint {
	specs := m.EntryPoints[group]
	eps := make([]EntryPoint, 0, len(specs))
	for _, spec := range specs {
		eps = append(eps, EntryPoint{
			Group:  group,
			Name:   spec.Name,
			Value:  spec.Reference(),
			Origin: m.Path,
			Loader: m.loader(spec, symbols),
		})
	}
	return eps
}

func (m *Manifest) loader(spec EntryPointSpec, symbols *Catalog) LoadFunc {
	if spec.Value != "" {
		return func(context.Context) (any, error) {
			if symbols == nil {
				return nil, fmt.Errorf("%w: %q (no symbol catalog configured)", ErrSymbolNotFound, spec.Value)
			}
			return symbols.Resolve(spec.Value)
		}
	}
	return func(context.Context) (any, error) {
		if len(spec.Command) == 0 {
			return nil, errors.New("entry point declares neither value nor command")
		}
		dir := filepath.Dir(m.Path)
		path := spec.Command[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return &ExecPlugin{
			Name: spec.Name,
			Path: path,
			Args: spec.Command[1:],
			Dir:  dir,
		}, nil
	}
}
