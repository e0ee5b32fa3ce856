package docgentemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/docfold/go-docgen/docgen"
)

func init() {
	if err := pongo2.RegisterFilter("get", filterGet); err != nil {
		panic(fmt.Sprintf("docgentemplate: register get filter: %v", err))
	}
	if err := pongo2.RegisterFilter("to_json", filterToJSON); err != nil {
		panic(fmt.Sprintf("docgentemplate: register to_json filter: %v", err))
	}
}

// Engine resolves and renders pongo2 templates. The zero value serves
// nothing; set Dir to a directory of .html files, Fallback to an embedded
// filesystem, or both. Disk templates shadow Fallback entries of the same
// name. Templates are compiled per render; the engine keeps no state.
type Engine struct {
	// Dir is the primary template directory. Empty skips disk lookup.
	Dir string

	// Fallback is consulted when a name is not found under Dir.
	Fallback fs.FS
}

// Resolve maps a template name to a concrete resource. Names may omit the
// .html extension. The returned ref carries a Path only for disk templates;
// Fallback hits resolve by name alone.
func (e Engine) Resolve(name string) (docgen.TemplateRef, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return docgen.TemplateRef{}, docgen.NewError(docgen.KindValidation, "template name is required", nil)
	}
	for _, candidate := range nameCandidates(trimmed) {
		if e.Dir != "" {
			path, err := e.diskPath(candidate)
			if err != nil {
				return docgen.TemplateRef{}, err
			}
			if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
				return docgen.TemplateRef{Name: candidate, Path: path}, nil
			}
		}
		if e.Fallback != nil {
			if info, statErr := fs.Stat(e.Fallback, candidate); statErr == nil && !info.IsDir() {
				return docgen.TemplateRef{Name: candidate}, nil
			}
		}
	}
	msg := fmt.Sprintf("template %q not found", trimmed)
	if available := e.Names(); len(available) > 0 {
		msg = fmt.Sprintf("template %q not found (available: %s)", trimmed, strings.Join(available, ", "))
	}
	return docgen.TemplateRef{}, docgen.NewError(docgen.KindNotFound, msg, nil)
}

// Render compiles the referenced template and executes it against ctx.
// Parse and execution failures surface as template syntax errors carrying
// pongo2's own diagnostic.
func (e Engine) Render(ref docgen.TemplateRef, ctx docgen.BindingContext) ([]byte, error) {
	tpl, err := e.compile(ref)
	if err != nil {
		return nil, err
	}
	out, err := tpl.ExecuteBytes(pongo2.Context(ctx))
	if err != nil {
		return nil, docgen.NewError(docgen.KindTemplateSyntax, fmt.Sprintf("execute template %s", ref.Name), err)
	}
	return out, nil
}

// Names lists the templates the engine can resolve, sorted and deduplicated.
// Both sources are listed flat; templates in subdirectories still resolve by
// explicit name.
func (e Engine) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if e.Dir != "" {
		if entries, err := os.ReadDir(e.Dir); err == nil {
			for _, entry := range entries {
				if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
					continue
				}
				add(entry.Name())
			}
		}
	}
	if e.Fallback != nil {
		if entries, err := fs.ReadDir(e.Fallback, "."); err == nil {
			for _, entry := range entries {
				if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
					continue
				}
				add(entry.Name())
			}
		}
	}
	sort.Strings(names)
	return names
}

func (e Engine) compile(ref docgen.TemplateRef) (*pongo2.Template, error) {
	if ref.Path != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(filepath.Dir(ref.Path))
		if err != nil {
			return nil, docgen.NewError(docgen.KindNotFound, fmt.Sprintf("open template directory for %s", ref.Name), err)
		}
		set := pongo2.NewSet("docgen", loader)
		tpl, err := set.FromFile(filepath.Base(ref.Path))
		if err != nil {
			return nil, compileError(ref.Name, err)
		}
		return tpl, nil
	}
	if e.Fallback == nil {
		return nil, docgen.NewError(docgen.KindNotFound, fmt.Sprintf("template %q not found", ref.Name), nil)
	}
	set := pongo2.NewSet("docgen-samples", fsLoader{e.Fallback})
	tpl, err := set.FromFile(ref.Name)
	if err != nil {
		return nil, compileError(ref.Name, err)
	}
	return tpl, nil
}

// fsLoader feeds pongo2 from an fs.FS. Embedded paths always use forward
// slashes, so relative includes resolve with path, not filepath.
type fsLoader struct {
	fsys fs.FS
}

func (l fsLoader) Abs(base, name string) string {
	if base == "" {
		return name
	}
	return path.Join(path.Dir(base), name)
}

func (l fsLoader) Get(p string) (io.Reader, error) {
	raw, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// compileError keeps missing-file failures distinguishable from genuine
// parse failures when a template disappears between Resolve and Render.
func compileError(name string, err error) error {
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr.OrigError != nil {
		if errors.Is(perr.OrigError, fs.ErrNotExist) || os.IsNotExist(perr.OrigError) {
			return docgen.NewError(docgen.KindNotFound, fmt.Sprintf("template %q not found", name), err)
		}
	}
	return docgen.NewError(docgen.KindTemplateSyntax, fmt.Sprintf("parse template %s", name), err)
}

// diskPath joins name under Dir and rejects names that escape it.
func (e Engine) diskPath(name string) (string, error) {
	base, err := filepath.Abs(e.Dir)
	if err != nil {
		return "", docgen.NewError(docgen.KindInternal, "resolve template directory", err)
	}
	path := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", docgen.NewError(docgen.KindValidation, fmt.Sprintf("template name %q escapes the template directory", name), nil)
	}
	return path, nil
}

func nameCandidates(name string) []string {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+".html")
	}
	return candidates
}

// filterGet looks a dynamic key up in a map value so templates can iterate
// arbitrary field lists: {{ row|get:field }}. Missing keys render empty.
func filterGet(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in == nil || in.IsNil() {
		return pongo2.AsValue(nil), nil
	}
	key := param.String()
	switch m := in.Interface().(type) {
	case map[string]any:
		return pongo2.AsValue(m[key]), nil
	case docgen.BindingContext:
		return pongo2.AsValue(m[key]), nil
	}
	rv := reflect.ValueOf(in.Interface())
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return pongo2.AsValue(nil), nil
		}
		return pongo2.AsValue(v.Interface()), nil
	}
	return nil, &pongo2.Error{
		Sender:    "filter:get",
		OrigError: fmt.Errorf("get filter needs a map, got %T", in.Interface()),
	}
}

// filterToJSON serializes a value as JSON, marked safe for script blocks.
// An integer parameter selects indented output with that many spaces.
func filterToJSON(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var (
		raw []byte
		err error
	)
	if param != nil && param.IsInteger() && param.Integer() > 0 {
		raw, err = json.MarshalIndent(in.Interface(), "", strings.Repeat(" ", param.Integer()))
	} else {
		raw, err = json.Marshal(in.Interface())
	}
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:to_json", OrigError: err}
	}
	return pongo2.AsSafeValue(string(raw)), nil
}
