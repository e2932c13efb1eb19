package entrypoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDirectoryLookup(t *testing.T) {
	r := require.New(t)
	root := t.TempDir()

	svgManifest := writeManifest(t, filepath.Join(root, "a-svg"), `
name: svg
entryPoints:
  renderers:
    - name: svg
      value: example.com/svg:Render
  themes:
    - name: dark
      value: example.com/themes:Dark
`)
	pngManifest := writeManifest(t, filepath.Join(root, "b-png", "nested"), `
name: png
entryPoints:
  renderers:
    - name: png
      command: ["bin/png"]
`)
	writeManifest(t, filepath.Join(root, ".hidden"), `
name: hidden
entryPoints:
  renderers:
    - name: hidden
      value: example.com/hidden:Render
`)
	r.NoError(os.WriteFile(filepath.Join(root, "README.md"), []byte("not a manifest"), 0o600))

	symbols := NewCatalog()
	r.NoError(symbols.Provide("example.com/svg:Render", "svg-renderer"))

	src := NewDirectory([]string{root, filepath.Join(root, "does-not-exist")}, WithSymbols(symbols), WithConcurrency(1))
	r.Equal([]string{root, filepath.Join(root, "does-not-exist")}, src.Paths())

	manifests, err := src.Manifests(t.Context())
	r.NoError(err)
	r.Len(manifests, 2)
	r.Equal(svgManifest, manifests[0].Path)
	r.Equal(pngManifest, manifests[1].Path)

	eps, err := src.Lookup(t.Context(), "renderers")
	r.NoError(err)
	r.Equal([]string{"svg", "png"}, Names(eps))
	r.Equal(svgManifest, eps[0].Origin)

	v, err := eps[0].Load(t.Context())
	r.NoError(err)
	r.Equal("svg-renderer", v)

	v, err = eps[1].Load(t.Context())
	r.NoError(err)
	r.Equal(filepath.Join(root, "b-png", "nested", "bin", "png"), v.(*ExecPlugin).Path)

	eps, err = src.Lookup(t.Context(), "themes")
	r.NoError(err)
	r.Equal([]string{"dark"}, Names(eps))

	eps, err = src.Lookup(t.Context(), "unknown")
	r.NoError(err)
	r.Empty(eps)
}

func TestDirectoryMissingRoot(t *testing.T) {
	src := NewDirectory([]string{filepath.Join(t.TempDir(), "missing")})
	eps, err := src.Lookup(t.Context(), "renderers")
	require.NoError(t, err)
	require.Empty(t, eps)
}

func TestDirectoryInvalidManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "broken"), `
name: broken
entryPoints:
  renderers:
    - name: nothing
`)
	_, err := NewDirectory([]string{root}).Lookup(t.Context(), "renderers")
	require.ErrorContains(t, err, "failed to read plugin manifests")
}

func TestExpandHome(t *testing.T) {
	r := require.New(t)
	home, err := os.UserHomeDir()
	r.NoError(err)

	path, err := ExpandHome("~/plugins")
	r.NoError(err)
	r.Equal(filepath.Join(home, "plugins"), path)

	path, err = ExpandHome("~")
	r.NoError(err)
	r.Equal(home, path)

	path, err = ExpandHome("/opt/plugins")
	r.NoError(err)
	r.Equal("/opt/plugins", path)
}
