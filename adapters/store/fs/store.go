package storefs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/docfold/go-docgen/docgen"
)

// Store provides filesystem-backed artifact storage rooted at one output
// directory. The directory is treated as an append-only archive; nothing in
// the store removes files.
type Store struct {
	Root string
	Now  func() time.Time
}

// NewStore creates a filesystem-backed artifact store.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Put writes an artifact under Root. The write is atomic: content goes to a
// temp file in the target directory first and is renamed into place, so a
// failed run never leaves a partial document behind. A file that already
// carries the same name is replaced.
func (s *Store) Put(ctx context.Context, filename string, r io.Reader) (docgen.Artifact, error) {
	_ = ctx
	if s == nil {
		return docgen.Artifact{}, docgen.NewError(docgen.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return docgen.Artifact{}, docgen.NewError(docgen.KindValidation, "store root is required", nil)
	}
	if filename == "" {
		return docgen.Artifact{}, docgen.NewError(docgen.KindValidation, "artifact filename is required", nil)
	}

	pathOnDisk, err := s.resolvePath(filename)
	if err != nil {
		return docgen.Artifact{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return docgen.Artifact{}, err
	}

	tmp, err := os.CreateTemp(dir, ".docgen-*")
	if err != nil {
		return docgen.Artifact{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return docgen.Artifact{}, err
	}
	if err := tmp.Sync(); err != nil {
		return docgen.Artifact{}, err
	}
	if err := tmp.Close(); err != nil {
		return docgen.Artifact{}, err
	}

	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return docgen.Artifact{}, err
	}

	return docgen.Artifact{
		Filename:  filename,
		Path:      pathOnDisk,
		Size:      size,
		CreatedAt: s.now(),
	}, nil
}

func (s *Store) resolvePath(filename string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(filename))
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", docgen.NewError(docgen.KindValidation, "invalid artifact filename", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", docgen.NewError(docgen.KindValidation, "artifact filename escapes output directory", nil)
	}
	return target, nil
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
