package docgen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LoaderRegistry maps file extensions to dataset loaders.
type LoaderRegistry struct {
	mu      sync.RWMutex
	loaders map[string]DatasetLoader
}

// NewLoaderRegistry creates an empty registry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{loaders: make(map[string]DatasetLoader)}
}

// DefaultLoaders returns a registry with the CSV, JSON and XLSX loaders.
func DefaultLoaders() *LoaderRegistry {
	r := NewLoaderRegistry()
	_ = r.Register(".csv", CSVLoader{})
	_ = r.Register(".json", JSONLoader{})
	_ = r.Register(".xlsx", XLSXLoader{})
	return r
}

// Register adds a loader for an extension (with or without the leading dot).
func (r *LoaderRegistry) Register(ext string, loader DatasetLoader) error {
	ext = normalizeExt(ext)
	if ext == "." {
		return NewError(KindValidation, "loader extension is required", nil)
	}
	if loader == nil {
		return NewError(KindValidation, "loader is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[ext]; exists {
		return NewError(KindValidation, fmt.Sprintf("loader for %q already registered", ext), nil)
	}
	r.loaders[ext] = loader
	return nil
}

// Extensions returns the registered extensions sorted for display.
func (r *LoaderRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Load reads the dataset at path, dispatching on the file extension.
func (r *LoaderRegistry) Load(path string) (*Dataset, error) {
	loader, err := r.lookup(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError(KindNotFound, fmt.Sprintf("dataset %s not found", path), err)
		}
		return nil, NewError(KindNotFound, fmt.Sprintf("open dataset %s", path), err)
	}
	defer f.Close()

	ds, err := loader.Load(filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	ds.Path = path
	return ds, nil
}

// LoadReader parses a dataset from r, dispatching on the extension of name.
// Used for embedded sample data, which has no on-disk path.
func (r *LoaderRegistry) LoadReader(name string, reader io.Reader) (*Dataset, error) {
	loader, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return loader.Load(filepath.Base(name), reader)
}

func (r *LoaderRegistry) lookup(path string) (DatasetLoader, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	loader, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, NewError(KindUnsupportedFormat, fmt.Sprintf("unsupported dataset format %q (supported: %s)", ext, strings.Join(r.Extensions(), ", ")), nil)
	}
	return loader, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
