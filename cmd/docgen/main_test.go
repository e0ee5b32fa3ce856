package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	datasetsqlite "github.com/docfold/go-docgen/adapters/dataset/sqlite"
	docgentemplate "github.com/docfold/go-docgen/adapters/template"
	"github.com/docfold/go-docgen/docgen"
)

func TestRun_FlagErrors(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Fatalf("unknown flag: code = %d, want 2", code)
	}
	if code := run([]string{"extra.csv", "surplus"}); code != 2 {
		t.Fatalf("surplus positional: code = %d, want 2", code)
	}
	if code := run([]string{"-h"}); code != 0 {
		t.Fatalf("-h: code = %d, want 0", code)
	}
}

func TestRun_UnknownEngine(t *testing.T) {
	if code := run([]string{"-engine", "etch-a-sketch"}); code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
}

type stubJournal struct {
	runs []docgen.RunRecord
}

func (s *stubJournal) Start(context.Context, docgen.RunRecord) (string, error) { return "", nil }
func (s *stubJournal) Complete(context.Context, string, string, int64) error  { return nil }
func (s *stubJournal) Fail(context.Context, string, error) error              { return nil }
func (s *stubJournal) List(_ context.Context, limit int) ([]docgen.RunRecord, error) {
	if limit > 0 && limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func TestPrintInventory(t *testing.T) {
	dataDir := t.TempDir()
	for _, name := range []string{"orders.json", "stock.XLSX", "history.db", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dataDir, "archive.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Config{DataDir: dataDir}
	loaders := docgen.DefaultLoaders()
	if err := datasetsqlite.Register(loaders, datasetsqlite.Loader{}); err != nil {
		t.Fatal(err)
	}
	templates := &docgentemplate.Engine{Fallback: docgen.SampleTemplatesFS()}
	journal := &stubJournal{runs: []docgen.RunRecord{
		{
			Dataset:    "invoices.csv",
			State:      docgen.RunStateCompleted,
			OutputPath: "out/invoice_INV-1001.pdf",
			CreatedAt:  time.Date(2024, 3, 2, 14, 5, 9, 0, time.UTC),
		},
		{
			Dataset:   "orders.json",
			State:     docgen.RunStateFailed,
			Error:     "record \"ORD-9\" not found",
			CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}}

	var buf bytes.Buffer
	if err := printInventory(context.Background(), cfg, loaders, templates, journal, &buf); err != nil {
		t.Fatalf("printInventory: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"invoices.csv (bundled sample)",
		"products.csv (bundled sample)",
		"orders.json",
		"stock.XLSX",
		"history.db",
		docgen.SampleTemplateInvoice,
		docgen.SampleTemplateOrder,
		docgen.SampleTemplateCatalog,
		"2024-03-02 14:05:09",
		"out/invoice_INV-1001.pdf",
		"record \"ORD-9\" not found",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	for _, reject := range []string{"readme.txt", "archive.csv"} {
		if strings.Contains(out, reject) {
			t.Fatalf("output should not list %q:\n%s", reject, out)
		}
	}
}

func TestPrintInventory_NoJournal(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{DataDir: filepath.Join(t.TempDir(), "missing")}
	templates := &docgentemplate.Engine{Fallback: docgen.SampleTemplatesFS()}
	if err := printInventory(context.Background(), cfg, docgen.DefaultLoaders(), templates, nil, &buf); err != nil {
		t.Fatalf("printInventory: %v", err)
	}
	if strings.Contains(buf.String(), "Recent runs:") {
		t.Fatalf("journal section printed without a journal:\n%s", buf.String())
	}
}

func TestListDatasets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.json", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	supported := docgen.DefaultLoaders().Extensions()
	got := listDatasets(dir, supported)
	want := []string{"a.json", "b.csv"}
	if len(got) != len(want) {
		t.Fatalf("listDatasets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listDatasets = %v, want %v", got, want)
		}
	}

	if res := listDatasets(filepath.Join(dir, "absent"), supported); res != nil {
		t.Fatalf("missing dir: got %v, want nil", res)
	}
	if res := listDatasets("", supported); res != nil {
		t.Fatalf("empty dir: got %v, want nil", res)
	}
}
