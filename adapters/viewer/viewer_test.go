package docgenviewer

import (
	"path/filepath"
	"testing"

	"github.com/docfold/go-docgen/docgen"
)

func TestBrowser_OpenMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.pdf")
	err := Browser{}.Open(missing)
	if err == nil {
		t.Fatalf("expected error")
	}
	if kind := docgen.KindFromError(err); kind != docgen.KindNotFound {
		t.Fatalf("expected not_found, got %v", kind)
	}
}
