package docgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoaderRegistry_LoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoices.csv")
	if err := os.WriteFile(path, []byte("id,name\n1,alice\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ds, err := DefaultLoaders().Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Name != "invoices.csv" {
		t.Fatalf("expected base name, got %q", ds.Name)
	}
	if ds.Path != path {
		t.Fatalf("expected path kept, got %q", ds.Path)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ds.Records))
	}
}

func TestLoaderRegistry_MissingFile(t *testing.T) {
	_, err := DefaultLoaders().Load(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if kind := KindFromError(err); kind != KindNotFound {
		t.Fatalf("expected not_found kind, got %s", kind)
	}
}

func TestLoaderRegistry_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.parquet")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := DefaultLoaders().Load(path)
	if err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if kind := KindFromError(err); kind != KindUnsupportedFormat {
		t.Fatalf("expected unsupported_format kind, got %s", kind)
	}
	if !strings.Contains(err.Error(), ".csv") {
		t.Fatalf("expected supported extensions in message, got %q", err.Error())
	}
}

func TestLoaderRegistry_LoadReader(t *testing.T) {
	ds, err := DefaultLoaders().LoadReader("sample.json", strings.NewReader(`[{"id": 1}]`))
	if err != nil {
		t.Fatalf("load reader: %v", err)
	}
	if ds.Name != "sample.json" {
		t.Fatalf("expected name kept, got %q", ds.Name)
	}
	if ds.Path != "" {
		t.Fatalf("expected empty path for reader datasets, got %q", ds.Path)
	}
}

func TestLoaderRegistry_DuplicateRegistration(t *testing.T) {
	r := NewLoaderRegistry()
	if err := r.Register("csv", CSVLoader{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(".csv", CSVLoader{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
