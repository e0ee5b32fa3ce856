// Package docgentemplate renders HTML markup from Django/Pongo2-style
// templates for go-docgen.
//
// Engine implements docgen.TemplateEngine on top of flosch/pongo2. Templates
// are resolved on disk under Engine.Dir first, then in Engine.Fallback
// (typically the embedded samples from docgen.SampleTemplatesFS). Resolution
// accepts names with or without the .html extension.
//
// Two filters are registered on top of pongo2's builtins: "get" looks a
// variable key up in a map ({{ row|get:field }}) and "to_json" serializes a
// value as JSON for script blocks.
package docgentemplate
