package docgen

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultMaxMarkupBytes caps the rendered markup handed to a PDF engine.
const DefaultMaxMarkupBytes = 32 << 20

// Pipeline orchestrates one generation run: load dataset, resolve template,
// select records, bind, render, store, journal, open. Dependencies are
// explicit fields; Now and IDGenerator are injectable for tests. A nil
// Journal or Viewer disables that step.
type Pipeline struct {
	Loaders        *LoaderRegistry
	Templates      TemplateEngine
	Engine         PDFEngine
	Store          ArtifactStore
	Journal        RunJournal
	Viewer         Viewer
	Fonts          *FontLocator
	Logger         Logger
	PDF            PDFOptions
	MaxMarkupBytes int64
	Now            func() time.Time
	IDGenerator    func() string
}

// NewPipeline creates a pipeline with default loaders around the three
// required collaborators.
func NewPipeline(templates TemplateEngine, engine PDFEngine, store ArtifactStore) *Pipeline {
	return &Pipeline{
		Loaders:     DefaultLoaders(),
		Templates:   templates,
		Engine:      engine,
		Store:       store,
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: defaultIDGenerator(),
	}
}

// Run executes a generation request. Failures abort the run; the artifact
// is rendered fully in memory before anything is written, so a failed run
// leaves no partial file under the output root.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if p == nil {
		return Result{}, NewError(KindInternal, "pipeline is nil", nil)
	}
	if p.Templates == nil || p.Engine == nil || p.Store == nil {
		return Result{}, NewError(KindInternal, "pipeline is not fully configured", nil)
	}
	if p.Loaders == nil {
		p.Loaders = DefaultLoaders()
	}
	if p.Logger == nil {
		p.Logger = NopLogger{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.IDGenerator == nil {
		p.IDGenerator = defaultIDGenerator()
	}

	ds, err := p.loadDataset(req.DatasetPath)
	if err != nil {
		return Result{}, err
	}
	p.Logger.Debugf("loaded %d records from %s", len(ds.Records), ds.Name)

	ref, err := p.resolveTemplate(ds, req.TemplateName)
	if err != nil {
		return Result{}, err
	}
	docType := DocumentTypeFor(ref.Name)
	p.Logger.Debugf("template %s (%s document)", ref.Name, docType)

	sel, err := SelectRecords(ds, docType, req.Identifier, req.IdentifierField)
	if err != nil {
		return Result{}, err
	}

	now := p.Now()
	markup, err := p.Templates.Render(ref, NewBindingContext(ds, sel, ref, now))
	if err != nil {
		return Result{}, err
	}

	maxMarkup := p.MaxMarkupBytes
	if maxMarkup == 0 {
		maxMarkup = DefaultMaxMarkupBytes
	}
	if maxMarkup > 0 && int64(len(markup)) > maxMarkup {
		return Result{}, NewError(KindValidation, fmt.Sprintf("rendered markup exceeds %d bytes", maxMarkup), nil)
	}

	if p.Fonts != nil {
		markup = InjectStyleTag(markup, p.Fonts.CSS())
	}

	filename := OutputFilename(docType, sel.Identifier, ds.Name, ref.Name, now)

	runID := p.IDGenerator()
	journaled := false
	if p.Journal != nil {
		id, err := p.Journal.Start(ctx, RunRecord{
			ID:           runID,
			Dataset:      ds.Name,
			Template:     ref.Name,
			DocumentType: docType,
			Identifier:   sel.Identifier,
			Filename:     filename,
			State:        RunStateRunning,
			Records:      len(sel.Records),
			CreatedAt:    now,
		})
		if err != nil {
			return Result{}, err
		}
		if id != "" {
			runID = id
		}
		journaled = true
	}

	opts := req.PDF
	if opts == (PDFOptions{}) {
		opts = p.PDF
	}

	pdf, err := p.Engine.Render(ctx, PDFRequest{HTML: markup, Options: opts})
	if err != nil {
		p.failRun(ctx, runID, journaled, err)
		return Result{}, err
	}
	p.Logger.Debugf("rendered %d pdf bytes", len(pdf))

	artifact, err := p.Store.Put(ctx, filename, bytes.NewReader(pdf))
	if err != nil {
		p.failRun(ctx, runID, journaled, err)
		return Result{}, err
	}

	if journaled {
		if err := p.Journal.Complete(ctx, runID, artifact.Path, artifact.Size); err != nil {
			p.Logger.Errorf("journal complete: %v", err)
		}
	}
	p.Logger.Infof("wrote %s", artifact.Path)

	if p.Viewer != nil {
		if err := p.Viewer.Open(artifact.Path); err != nil {
			p.Logger.Errorf("open viewer: %v", err)
		}
	}

	return Result{
		RunID:        runID,
		Dataset:      ds.Name,
		Template:     ref.Name,
		DocumentType: docType,
		Identifier:   sel.Identifier,
		Filename:     artifact.Filename,
		Path:         artifact.Path,
		Records:      len(sel.Records),
		Bytes:        artifact.Size,
		GeneratedAt:  now,
	}, nil
}

func (p *Pipeline) loadDataset(path string) (*Dataset, error) {
	if path == "" {
		return p.loadSample(SampleDataset)
	}
	ds, err := p.Loaders.Load(path)
	if err != nil && KindFromError(err) == KindNotFound && !strings.ContainsAny(path, `/\`) {
		// A bare name that misses on disk may still be one of the
		// bundled samples.
		if sample, sampleErr := p.loadSample(path); sampleErr == nil {
			return sample, nil
		}
	}
	return ds, err
}

func (p *Pipeline) loadSample(name string) (*Dataset, error) {
	f, err := SampleDataFS().Open(name)
	if err != nil {
		return nil, NewError(KindInternal, "open bundled sample dataset", err)
	}
	defer f.Close()
	return p.Loaders.LoadReader(name, f)
}

// resolveTemplate applies the template default: an explicit name is
// resolved as-is, otherwise detection proposes candidates from the dataset
// and the bundled invoice template is the last resort. Resolution failures
// surface before any rendering happens.
func (p *Pipeline) resolveTemplate(ds *Dataset, name string) (TemplateRef, error) {
	if name == "" {
		candidates := DetectTemplates(ds, p.Templates.Names())
		if len(candidates) > 0 {
			name = candidates[0]
		} else {
			name = SampleTemplateInvoice
		}
		p.Logger.Debugf("no template named, using %s", name)
	}
	return p.Templates.Resolve(name)
}

func (p *Pipeline) failRun(ctx context.Context, runID string, journaled bool, cause error) {
	if !journaled {
		return
	}
	if err := p.Journal.Fail(ctx, runID, cause); err != nil {
		p.Logger.Errorf("journal fail: %v", err)
	}
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("run-%d", id)
	}
}
