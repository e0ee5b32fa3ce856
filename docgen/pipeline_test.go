package docgen

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubTemplates struct {
	names     []string
	resolved  map[string]string // name -> markup
	lastCtx   BindingContext
	renderErr error
}

func (s *stubTemplates) Resolve(name string) (TemplateRef, error) {
	if _, ok := s.resolved[name]; !ok {
		return TemplateRef{}, NewError(KindNotFound, "template "+name+" not found", nil)
	}
	return TemplateRef{Name: name, Path: "/templates/" + name}, nil
}

func (s *stubTemplates) Render(ref TemplateRef, ctx BindingContext) ([]byte, error) {
	if s.renderErr != nil {
		return nil, s.renderErr
	}
	s.lastCtx = ctx
	return []byte(s.resolved[ref.Name]), nil
}

func (s *stubTemplates) Names() []string { return s.names }

type stubEngine struct {
	calls int
	fail  bool
	html  []byte
}

func (s *stubEngine) Render(ctx context.Context, req PDFRequest) ([]byte, error) {
	s.calls++
	s.html = req.HTML
	if s.fail {
		return nil, NewError(KindRender, "engine exploded", nil)
	}
	return []byte("%PDF-1.4 fake"), nil
}

type dirStore struct {
	root string
}

func (s dirStore) Put(ctx context.Context, filename string, r io.Reader) (Artifact, error) {
	path := filepath.Join(s.root, filename)
	data, err := io.ReadAll(r)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, err
	}
	return Artifact{Filename: filename, Path: path, Size: int64(len(data))}, nil
}

type memJournal struct {
	runs map[string]*RunRecord
}

func (j *memJournal) Start(ctx context.Context, rec RunRecord) (string, error) {
	if j.runs == nil {
		j.runs = make(map[string]*RunRecord)
	}
	copied := rec
	j.runs[rec.ID] = &copied
	return rec.ID, nil
}

func (j *memJournal) Complete(ctx context.Context, id, outputPath string, bytes int64) error {
	j.runs[id].State = RunStateCompleted
	j.runs[id].OutputPath = outputPath
	j.runs[id].Bytes = bytes
	return nil
}

func (j *memJournal) Fail(ctx context.Context, id string, cause error) error {
	j.runs[id].State = RunStateFailed
	j.runs[id].Error = cause.Error()
	return nil
}

func (j *memJournal) List(ctx context.Context, limit int) ([]RunRecord, error) {
	var out []RunRecord
	for _, rec := range j.runs {
		out = append(out, *rec)
	}
	return out, nil
}

type recordingViewer struct {
	opened []string
	err    error
}

func (v *recordingViewer) Open(path string) error {
	v.opened = append(v.opened, path)
	return v.err
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 2, 14, 5, 9, 0, time.UTC) }
}

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T) (*Pipeline, *stubTemplates, *stubEngine, string) {
	t.Helper()
	templates := &stubTemplates{
		names: []string{SampleTemplateInvoice, SampleTemplateOrder, SampleTemplateCatalog},
		resolved: map[string]string{
			SampleTemplateInvoice: "<html><head></head><body>invoice</body></html>",
			SampleTemplateOrder:   "<html><body>order</body></html>",
			SampleTemplateCatalog: "<html><body>catalog</body></html>",
		},
	}
	engine := &stubEngine{}
	outDir := t.TempDir()

	p := NewPipeline(templates, engine, dirStore{root: outDir})
	p.Now = fixedClock()
	return p, templates, engine, outDir
}

func TestPipeline_RunInvoice(t *testing.T) {
	p, templates, _, outDir := newTestPipeline(t)
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,customer,item_name,qty,price\n"+
			"INV-1001,Acme,Widget,2,9.99\n"+
			"INV-1001,Acme,Gadget,1,19.50\n")

	res, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
		Identifier:   "INV-1001",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Filename != "invoice_INV-1001_20240302_140509.pdf" {
		t.Fatalf("unexpected filename: %q", res.Filename)
	}
	if res.Records != 2 {
		t.Fatalf("expected 2 selected records, got %d", res.Records)
	}
	if res.DocumentType != DocTypeInvoice {
		t.Fatalf("expected invoice type, got %s", res.DocumentType)
	}

	data, err := os.ReadFile(filepath.Join(outDir, res.Filename))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Fatalf("unexpected artifact bytes: %q", data)
	}

	if templates.lastCtx["invoice_id"] != "INV-1001" {
		t.Fatalf("expected identifier in context, got %v", templates.lastCtx["invoice_id"])
	}
}

func TestPipeline_TemplateNotFoundBeforeEngine(t *testing.T) {
	p, _, engine, _ := newTestPipeline(t)
	dataPath := writeDataset(t, t.TempDir(), "d.csv", "id,name\n1,a\n")

	_, err := p.Run(context.Background(), Request{DatasetPath: dataPath, TemplateName: "missing.html"})
	if err == nil {
		t.Fatalf("expected template not found")
	}
	if kind := KindFromError(err); kind != KindNotFound {
		t.Fatalf("expected not_found kind, got %s", kind)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not run for a missing template, got %d calls", engine.calls)
	}
}

func TestPipeline_EngineFailureLeavesNoFile(t *testing.T) {
	p, _, engine, outDir := newTestPipeline(t)
	engine.fail = true
	journal := &memJournal{}
	p.Journal = journal
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,total\nINV-1,10\n")

	_, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
		Identifier:   "INV-1",
	})
	if err == nil {
		t.Fatalf("expected render failure")
	}
	if kind := KindFromError(err); kind != KindRender {
		t.Fatalf("expected render kind, got %s", kind)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no partial output, found %d entries", len(entries))
	}

	runs, _ := journal.List(context.Background(), 0)
	if len(runs) != 1 || runs[0].State != RunStateFailed {
		t.Fatalf("expected failed journal entry, got %+v", runs)
	}
	if !strings.Contains(runs[0].Error, "engine exploded") {
		t.Fatalf("expected failure cause recorded, got %q", runs[0].Error)
	}
}

func TestPipeline_MissingIdentifierAborts(t *testing.T) {
	p, _, engine, _ := newTestPipeline(t)
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,total\nINV-1,10\nINV-2,20\n")

	_, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
	})
	if err == nil {
		t.Fatalf("expected missing identifier")
	}
	var missing *MissingIdentifierError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingIdentifierError, got %T", err)
	}
	if len(missing.Available) != 2 {
		t.Fatalf("expected available identifiers, got %v", missing.Available)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not run after selection failure")
	}
}

func TestPipeline_CatalogUsesDatasetTemplateNaming(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	dataPath := writeDataset(t, t.TempDir(), "products.csv",
		"product_id,name,unit\nP-1,Widget,pcs\n")

	res, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateCatalog,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Filename != "products_product_catalog_20240302_140509.pdf" {
		t.Fatalf("unexpected filename: %q", res.Filename)
	}
	if res.Identifier != "" {
		t.Fatalf("expected no identifier, got %q", res.Identifier)
	}
}

func TestPipeline_DetectsTemplateWhenUnnamed(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	dataPath := writeDataset(t, t.TempDir(), "q3_orders.csv",
		"invoice_id,item_name,qty,price\nORD-1,Widget,1,5\n")

	res, err := p.Run(context.Background(), Request{DatasetPath: dataPath, Identifier: "ORD-1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Template != SampleTemplateOrder {
		t.Fatalf("expected order template from dataset name, got %s", res.Template)
	}
}

func TestPipeline_BundledSampleDefaults(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	res, err := p.Run(context.Background(), Request{Identifier: "INV-1001"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Dataset != SampleDataset {
		t.Fatalf("expected bundled sample dataset, got %q", res.Dataset)
	}
	if res.Template != SampleTemplateInvoice {
		t.Fatalf("expected invoice template detected, got %q", res.Template)
	}
	if res.Records != 2 {
		t.Fatalf("expected the two INV-1001 line items, got %d", res.Records)
	}
}

func TestPipeline_BareNameFallsBackToBundledSample(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	res, err := p.Run(context.Background(), Request{DatasetPath: "products.csv"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Dataset != "products.csv" {
		t.Fatalf("expected bundled products sample, got %q", res.Dataset)
	}
	if res.DocumentType != DocTypeCatalog {
		t.Fatalf("expected catalog type, got %s", res.DocumentType)
	}
	if res.Template != SampleTemplateCatalog {
		t.Fatalf("expected catalog template detected, got %q", res.Template)
	}
	if res.Records != 5 {
		t.Fatalf("expected all 5 products, got %d", res.Records)
	}
}

func TestPipeline_MissingDatasetKeepsDiskError(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)

	_, err := p.Run(context.Background(), Request{DatasetPath: "ghosts.csv"})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if kind := KindFromError(err); kind != KindNotFound {
		t.Fatalf("kind = %q, want not_found", kind)
	}
	if !strings.Contains(err.Error(), "ghosts.csv") {
		t.Fatalf("error should name the missing dataset: %v", err)
	}
}

func TestPipeline_ViewerFailureIsNonFatal(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	viewer := &recordingViewer{err: errors.New("no display")}
	p.Viewer = viewer
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,total\nINV-1,10\n")

	res, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
		Identifier:   "INV-1",
	})
	if err != nil {
		t.Fatalf("expected viewer failure to be swallowed, got %v", err)
	}
	if len(viewer.opened) != 1 || viewer.opened[0] != res.Path {
		t.Fatalf("expected viewer invoked with artifact path, got %v", viewer.opened)
	}
}

func TestPipeline_FontCSSInjected(t *testing.T) {
	p, _, engine, _ := newTestPipeline(t)
	p.Fonts = &FontLocator{AssetsDir: t.TempDir(), GOOS: "windows", WindowsDir: t.TempDir()}
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,total\nINV-1,10\n")

	_, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
		Identifier:   "INV-1",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(string(engine.html), "font-family") {
		t.Fatalf("expected font css injected into markup, got %q", engine.html)
	}
}

func TestPipeline_MarkupSizeCap(t *testing.T) {
	p, templates, engine, _ := newTestPipeline(t)
	templates.resolved[SampleTemplateInvoice] = strings.Repeat("x", 256)
	p.MaxMarkupBytes = 64
	dataPath := writeDataset(t, t.TempDir(), "invoices.csv",
		"invoice_id,total\nINV-1,10\n")

	_, err := p.Run(context.Background(), Request{
		DatasetPath:  dataPath,
		TemplateName: SampleTemplateInvoice,
		Identifier:   "INV-1",
	})
	if err == nil {
		t.Fatalf("expected markup size failure")
	}
	if kind := KindFromError(err); kind != KindValidation {
		t.Fatalf("expected validation kind, got %s", kind)
	}
	if engine.calls != 0 {
		t.Fatalf("engine must not see oversized markup")
	}
}
