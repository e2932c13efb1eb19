package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
)

// Directory discovers entry points from plugin manifests below a set of directories.
// Directories that do not exist are skipped. Manifests are read on every lookup.
type Directory struct {
	paths       []string
	symbols     *Catalog
	concurrency int
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithSymbols sets the catalog used to resolve value references of manifests.
// Defaults to the Default catalog.
func WithSymbols(c *Catalog) DirectoryOption {
	return func(d *Directory) {
		d.symbols = c
	}
}

// WithConcurrency limits the number of manifests read in parallel.
func WithConcurrency(n int) DirectoryOption {
	return func(d *Directory) {
		d.concurrency = n
	}
}

// NewDirectory creates a source for the given plugin directories.
func NewDirectory(paths []string, opts ...DirectoryOption) *Directory {
	d := &Directory{
		paths:       slices.Clone(paths),
		symbols:     Default,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Paths returns the configured plugin directories.
func (d *Directory) Paths() []string {
	return slices.Clone(d.paths)
}

// Lookup returns the entry points all manifests declare for group,
// ordered by manifest path and declaration order.
func (d *Directory) Lookup(ctx context.Context, group string) ([]EntryPoint, error) {
	manifests, err := d.Manifests(ctx)
	if err != nil {
		return nil, err
	}
	var eps []EntryPoint
	for _, m := range manifests {
		eps = append(eps, m.EntryPointsFor(group, d.symbols)...)
	}
	return eps, nil
}

// Manifests reads all manifests below the configured directories, sorted by path.
func (d *Directory) Manifests(ctx context.Context) ([]*Manifest, error) {
	var files []string
	for _, dir := range d.paths {
		found, err := d.discover(ctx, dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	manifests := make([]*Manifest, len(files))
	eg, egctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		eg.SetLimit(d.concurrency)
	}
	for i, file := range files {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			m, err := ReadManifest(file)
			if err != nil {
				return err
			}
			manifests[i] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read plugin manifests: %w", err)
	}
	return manifests, nil
}

func (d *Directory) discover(ctx context.Context, dir string) ([]string, error) {
	logger := slogcontext.FromCtx(ctx)
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				logger.DebugContext(ctx, "plugin directory does not exist, skipping", "path", dir)
				return filepath.SkipDir
			}
			return err
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(ManifestFileNames, entry.Name()) {
			return nil
		}

		logger.DebugContext(ctx, "discovered plugin manifest", "path", path)
		files = append(files, path)
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return nil, fmt.Errorf("failed to discover plugin manifests in %s: %w", dir, err)
	}
	return files, nil
}

// ExpandHome replaces a leading ~ in path with the home directory of the current user.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
