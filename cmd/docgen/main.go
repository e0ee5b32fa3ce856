// Command docgen renders tabular datasets (CSV, JSON, XLSX) through HTML
// templates into PDF files.
//
// Without arguments it renders the bundled sample dataset with a template
// matched to it:
//
//	docgen
//	docgen -data invoices.csv -invoice INV-1001
//	docgen -data orders.json -template order_detailed -out build/pdf
//	docgen -list
//
// DOCGEN_* environment variables (optionally from a .env file in the
// working directory) provide defaults for most flags; flags win.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	datasetsqlite "github.com/docfold/go-docgen/adapters/dataset/sqlite"
	journalbun "github.com/docfold/go-docgen/adapters/journal/bun"
	docgenpdf "github.com/docfold/go-docgen/adapters/pdf"
	storefs "github.com/docfold/go-docgen/adapters/store/fs"
	docgentemplate "github.com/docfold/go-docgen/adapters/template"
	docgenviewer "github.com/docfold/go-docgen/adapters/viewer"
	"github.com/docfold/go-docgen/docgen"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := Defaults()
	cfg.ApplyEnv()

	flags := flag.NewFlagSet("docgen", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.StringVar(&cfg.DataPath, "data", cfg.DataPath, "dataset file (.csv, .json, .xlsx, .sqlite); bare names are looked up in -data-dir (default: bundled sample)")
	flags.StringVar(&cfg.TemplateName, "template", cfg.TemplateName, "template name or path (default: matched to the dataset)")
	flags.StringVar(&cfg.Identifier, "invoice", cfg.Identifier, "identifier of the record to render, e.g. an invoice number")
	flags.StringVar(&cfg.IdentifierField, "id-field", cfg.IdentifierField, "dataset field holding the record identifier (default: detected)")
	flags.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory for generated PDFs")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory searched for bare dataset names")
	flags.StringVar(&cfg.TemplatesDir, "templates-dir", cfg.TemplatesDir, "directory searched for templates before the bundled ones")
	flags.StringVar(&cfg.FontsDir, "fonts-dir", cfg.FontsDir, "directory searched for TTF fonts referenced by the page styles")
	flags.StringVar(&cfg.Engine, "engine", cfg.Engine, "PDF engine: chromium or wkhtmltopdf")
	flags.StringVar(&cfg.BrowserPath, "browser", cfg.BrowserPath, "chromium binary (default: found on PATH, else downloaded)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "PDF rendering timeout")
	flags.StringVar(&cfg.PageSize, "page-size", cfg.PageSize, "page size: A3, A4, A5, Letter or Legal (default: template styles decide)")
	flags.BoolVar(&cfg.Landscape, "landscape", cfg.Landscape, "landscape orientation")
	flags.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite file recording generation runs (empty: no journal)")
	flags.BoolVar(&cfg.NoOpen, "no-open", cfg.NoOpen, "do not open the generated PDF")
	flags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "debug logging")
	list := flags.Bool("list", false, "list datasets, templates and recent runs, then exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	switch rest := flags.Args(); len(rest) {
	case 0:
	case 1:
		cfg.DataPath = rest[0]
	default:
		fmt.Fprintf(os.Stderr, "docgen: unexpected arguments: %s\n", strings.Join(rest[1:], " "))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := stderrLogger{verbose: cfg.Verbose}

	loaders := docgen.DefaultLoaders()
	_ = datasetsqlite.Register(loaders, datasetsqlite.Loader{})

	templates := &docgentemplate.Engine{
		Dir:      cfg.TemplatesDir,
		Fallback: docgen.SampleTemplatesFS(),
	}

	var journal docgen.RunJournal
	if cfg.JournalPath != "" {
		j, closeJournal, err := openJournal(ctx, cfg.JournalPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "docgen: open journal %s: %v\n", cfg.JournalPath, err)
			return 1
		}
		defer closeJournal()
		journal = j
	}

	if *list {
		if err := printInventory(ctx, cfg, loaders, templates, journal, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "docgen: %v\n", err)
			return 1
		}
		return 0
	}

	engine, closeEngine, code := buildEngine(cfg, logger)
	if code != 0 {
		return code
	}
	defer closeEngine()

	pipeline := docgen.NewPipeline(templates, engine, storefs.NewStore(cfg.OutputDir))
	pipeline.Loaders = loaders
	pipeline.Journal = journal
	pipeline.Fonts = &docgen.FontLocator{AssetsDir: cfg.FontsDir}
	pipeline.Logger = logger
	pipeline.IDGenerator = uuid.NewString
	if !cfg.NoOpen {
		pipeline.Viewer = docgenviewer.Browser{}
	}

	req := docgen.Request{
		DatasetPath:     cfg.ResolveDataPath(),
		TemplateName:    cfg.TemplateName,
		Identifier:      cfg.Identifier,
		IdentifierField: cfg.IdentifierField,
		PDF:             docgen.PDFOptions{PageSize: cfg.PageSize},
	}
	if cfg.Landscape {
		landscape := true
		req.PDF.Landscape = &landscape
	}

	res, err := pipeline.Run(ctx, req)
	if err != nil {
		if ctx.Err() != nil || docgen.KindFromError(err) == docgen.KindCanceled {
			fmt.Fprintln(os.Stderr, "docgen: interrupted")
			return 130
		}
		gerr := docgen.AsGoError(err)
		fmt.Fprintf(os.Stderr, "docgen: %s: %v\n", gerr.TextCode, err)
		return 1
	}
	fmt.Println(res.Path)
	return 0
}

// buildEngine constructs the PDF engine selected by the config. The
// returned cleanup is safe to call unconditionally. A non-zero code means
// the error was already reported.
func buildEngine(cfg Config, logger stderrLogger) (docgen.PDFEngine, func(), int) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", "chromium", "chrome":
		browserPath := cfg.BrowserPath
		if browserPath == "" {
			if found, ok := docgenpdf.FindBrowser(); ok {
				browserPath = found
			} else {
				logger.Infof("no chromium on PATH, fetching a managed build")
				resolved, err := docgenpdf.ResolveBrowser()
				if err != nil {
					fmt.Fprintf(os.Stderr, "docgen: resolve chromium: %v\n", err)
					return nil, func() {}, 1
				}
				browserPath = resolved
			}
		}
		logger.Debugf("using chromium at %s", browserPath)
		engine := &docgenpdf.ChromiumEngine{
			BrowserPath: browserPath,
			Headless:    true,
			Timeout:     cfg.Timeout,
		}
		if cfg.NoSandbox {
			engine.Args = append(engine.Args, "--no-sandbox")
		}
		return engine, func() {
			if err := engine.Close(); err != nil {
				logger.Debugf("close chromium: %v", err)
			}
		}, 0
	case "wkhtmltopdf":
		return &docgenpdf.WKHTMLTOPDFEngine{
			Command: cfg.WKHTMLTOPDFPath,
			Timeout: cfg.Timeout,
		}, func() {}, 0
	default:
		fmt.Fprintf(os.Stderr, "docgen: unknown engine %q (supported: chromium, wkhtmltopdf)\n", cfg.Engine)
		return nil, func() {}, 1
	}
}

// openJournal opens (or creates) the SQLite run journal at path.
func openJournal(ctx context.Context, path string) (*journalbun.Journal, func(), error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	journal := journalbun.NewJournal(db)
	if err := journal.Init(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return journal, func() { db.Close() }, nil
}

// printInventory lists what a run could use: dataset files, template
// names and, when a journal is configured, the most recent runs.
func printInventory(ctx context.Context, cfg Config, loaders *docgen.LoaderRegistry, templates *docgentemplate.Engine, journal docgen.RunJournal, out io.Writer) error {
	fmt.Fprintf(out, "Datasets (%s):\n", cfg.DataDir)
	if entries, err := fs.ReadDir(docgen.SampleDataFS(), "."); err == nil {
		for _, entry := range entries {
			fmt.Fprintf(out, "  %s (bundled sample)\n", entry.Name())
		}
	}
	for _, name := range listDatasets(cfg.DataDir, loaders.Extensions()) {
		fmt.Fprintf(out, "  %s\n", name)
	}

	fmt.Fprintln(out, "Templates:")
	for _, name := range templates.Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if journal == nil {
		return nil
	}
	runs, err := journal.List(ctx, 20)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	fmt.Fprintln(out, "Recent runs:")
	if len(runs) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}
	for _, rec := range runs {
		detail := rec.OutputPath
		if rec.State == docgen.RunStateFailed {
			detail = rec.Error
		}
		fmt.Fprintf(out, "  %s  %-9s  %s -> %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.State, rec.Dataset, detail)
	}
	return nil
}

// listDatasets returns dataset files under dir with a loadable extension,
// sorted by name. A missing directory is not an error.
func listDatasets(dir string, supported []string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, s := range supported {
			if ext == s {
				names = append(names, entry.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// stderrLogger writes leveled lines to stderr; debug output is gated by
// the -verbose flag.
type stderrLogger struct {
	verbose bool
}

func (l stderrLogger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
}

func (l stderrLogger) Infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[INFO] "+format+"\n", args...)
}

func (l stderrLogger) Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}
