// Package docgenviewer opens generated documents with the platform's
// default handler.
package docgenviewer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/browser"

	"github.com/docfold/go-docgen/docgen"
)

// Browser opens files through the default browser or the platform's
// registered PDF handler (xdg-open, open, or the Windows shell). It
// implements docgen.Viewer.
type Browser struct{}

// Open opens path with the OS default handler. The file must exist; a
// missing file reports not found instead of a blank browser tab.
func (Browser) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return docgen.NewError(docgen.KindNotFound, fmt.Sprintf("document %q not found", path), err)
		}
		return err
	}
	return browser.OpenFile(abs)
}
