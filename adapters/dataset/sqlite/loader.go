// Package datasetsqlite loads datasets from SQLite database files. One
// table becomes one dataset: column names are the fields, rows are the
// records in rowid order. It is not registered by default; call Register
// to make .sqlite and .db files loadable.
package datasetsqlite

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/docfold/go-docgen/docgen"
)

// Extensions are the file extensions Register claims.
var Extensions = []string{".sqlite", ".db"}

// Loader reads one table of a SQLite database file as a dataset.
type Loader struct {
	// Table selects the table to read. Empty works only for databases
	// with a single user table; anything else needs the name spelled out.
	Table string
}

// Register adds the loader to a registry under the .sqlite and .db
// extensions.
func Register(r *docgen.LoaderRegistry, l Loader) error {
	for _, ext := range Extensions {
		if err := r.Register(ext, l); err != nil {
			return err
		}
	}
	return nil
}

// Load implements docgen.DatasetLoader. The stream is copied to a
// temporary file first; SQLite needs to seek its input.
func (l Loader) Load(name string, r io.Reader) (*docgen.Dataset, error) {
	path, cleanup, err := materialize(name, r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, docgen.NewError(docgen.KindInternal, "sqlite open failed", err)
	}
	defer db.Close()

	table := strings.TrimSpace(l.Table)
	if table == "" {
		table, err = soleUserTable(db, name)
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.Query("SELECT * FROM " + quoteIdentifier(table))
	if err != nil {
		return nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: read table %q", name, table), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: read columns of %q", name, table), err)
	}
	if len(columns) == 0 {
		return nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: table %q has no columns", name, table), nil)
	}

	ds := &docgen.Dataset{
		Name:   name,
		Format: docgen.FormatSQLite,
		Fields: append([]string(nil), columns...),
	}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: scan row %d", name, len(ds.Records)+1), err)
		}
		var rec docgen.Record
		for i, column := range columns {
			rec.Set(column, normalizeValue(values[i]))
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: read rows of %q", name, table), err)
	}
	return ds, nil
}

// materialize copies the stream to a temp file the driver can open. The
// cleanup removes it.
func materialize(name string, r io.Reader) (string, func(), error) {
	tmp, err := os.CreateTemp("", "docgen-*.sqlite")
	if err != nil {
		return "", nil, docgen.NewError(docgen.KindInternal, "sqlite temp file create failed", err)
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: read dataset", name), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, docgen.NewError(docgen.KindInternal, "sqlite temp file close failed", err)
	}
	return path, cleanup, nil
}

// soleUserTable returns the only user table in the database. Zero or
// several tables are reported as parse failures; picking one silently
// would render the wrong data.
func soleUserTable(db *sql.DB, name string) (string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return "", docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: not a sqlite database", name), err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return "", docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: list tables", name), err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return "", docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: not a sqlite database", name), err)
	}

	switch len(tables) {
	case 0:
		return "", docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: no tables", name), nil)
	case 1:
		return tables[0], nil
	default:
		return "", docgen.NewError(docgen.KindParse, fmt.Sprintf("sqlite %s: several tables (%s), a table name is required", name, strings.Join(tables, ", ")), nil)
	}
}

// normalizeValue maps driver values onto the types the other loaders
// produce: text as string, numbers as int64/float64, NULL as nil.
func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
