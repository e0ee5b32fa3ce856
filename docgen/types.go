package docgen

import (
	"context"
	"io"
	"time"
)

// Format identifies a dataset file format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Record is one structured entity within a Dataset. Field order follows the
// source: the header for CSV/XLSX, object key order for JSON. Records are
// built by loaders and never mutated afterwards.
type Record struct {
	fields []string
	values map[string]any
}

// Set stores a field value, appending the field to the order on first use.
func (r *Record) Set(field string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

// Value returns the value for field and whether the field exists.
func (r Record) Value(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Has reports whether the record carries the field.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in source order.
func (r Record) Fields() []string {
	return r.fields
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Map returns a shallow copy of the record as a plain map for template
// binding. Field order is not carried by the map; use Fields for order.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Dataset is the ordered collection of records loaded from one input file.
type Dataset struct {
	Name    string
	Path    string
	Format  Format
	Fields  []string
	Records []Record
}

// DatasetLoader parses one input format into a Dataset. The name is the
// base filename and is kept on the Dataset for output naming.
type DatasetLoader interface {
	Load(name string, r io.Reader) (*Dataset, error)
}

// TemplateRef names a template resolved to a concrete resource. Path is
// empty for templates served from the embedded samples.
type TemplateRef struct {
	Name string
	Path string
}

// BindingContext is the data exposed to a template. Constructed fresh per
// run; see NewBindingContext for the key set.
type BindingContext map[string]any

// TemplateEngine resolves template names and renders markup. Resolve must
// fail with a not-found error before any rendering is attempted for a
// missing template; Render surfaces the engine's own syntax errors.
type TemplateEngine interface {
	Resolve(name string) (TemplateRef, error)
	Render(ref TemplateRef, ctx BindingContext) ([]byte, error)
	Names() []string
}

// PDFExternalAssetsPolicy controls how remote assets referenced by the
// markup are handled during PDF rendering.
type PDFExternalAssetsPolicy string

const (
	PDFExternalAssetsUnspecified PDFExternalAssetsPolicy = ""
	PDFExternalAssetsAllow       PDFExternalAssetsPolicy = "allow"
	PDFExternalAssetsBlock       PDFExternalAssetsPolicy = "block"
)

// PDFOptions configures PDF output for headless engines.
type PDFOptions struct {
	PageSize             string
	Landscape            *bool
	PrintBackground      *bool
	Scale                float64
	MarginTop            string
	MarginBottom         string
	MarginLeft           string
	MarginRight          string
	PreferCSSPageSize    *bool
	BaseURL              string
	ExternalAssetsPolicy PDFExternalAssetsPolicy
}

// PDFRequest carries rendered markup to a PDF engine.
type PDFRequest struct {
	HTML    []byte
	Options PDFOptions
}

// PDFEngine turns markup into PDF bytes.
type PDFEngine interface {
	Render(ctx context.Context, req PDFRequest) ([]byte, error)
}

// PDFEngineFunc adapts a function to the PDFEngine interface.
type PDFEngineFunc func(ctx context.Context, req PDFRequest) ([]byte, error)

// Render implements PDFEngine.
func (f PDFEngineFunc) Render(ctx context.Context, req PDFRequest) ([]byte, error) {
	if f == nil {
		return nil, NewError(KindInternal, "pdf engine func is nil", nil)
	}
	return f(ctx, req)
}

// Artifact describes a stored output file.
type Artifact struct {
	Filename  string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// ArtifactStore persists finished documents under the output root. Writes
// are atomic; the output directory is an append-only archive.
type ArtifactStore interface {
	Put(ctx context.Context, filename string, r io.Reader) (Artifact, error)
}

// RunState tracks a journaled generation run.
type RunState string

const (
	RunStateQueued    RunState = "queued"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// RunRecord is one generation run as recorded in the journal.
type RunRecord struct {
	ID           string
	Dataset      string
	Template     string
	DocumentType DocumentType
	Identifier   string
	Filename     string
	OutputPath   string
	State        RunState
	Records      int
	Bytes        int64
	Error        string
	CreatedAt    time.Time
	CompletedAt  time.Time
}

// RunJournal records generation runs. Implementations must tolerate being
// absent; the pipeline treats a nil journal as "do not record".
type RunJournal interface {
	Start(ctx context.Context, rec RunRecord) (string, error)
	Complete(ctx context.Context, id string, outputPath string, bytes int64) error
	Fail(ctx context.Context, id string, cause error) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

// Viewer opens a produced file with the platform's default handler.
type Viewer interface {
	Open(path string) error
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Request describes one generation run. Zero values select the bundled
// sample dataset and template detection.
type Request struct {
	DatasetPath     string
	TemplateName    string
	Identifier      string
	IdentifierField string
	PDF             PDFOptions
}

// Result reports a finished run.
type Result struct {
	RunID        string
	Dataset      string
	Template     string
	DocumentType DocumentType
	Identifier   string
	Filename     string
	Path         string
	Records      int
	Bytes        int64
	GeneratedAt  time.Time
}
