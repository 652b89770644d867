// Package store exports result tables into a single SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Table is one result table to export under Name.
type Table struct {
	Name  string
	Table *dataset.Table
}

// Export writes every table into the SQLite database at path, replacing
// tables of the same name. Numeric columns become REAL, the rest TEXT; empty
// cells are stored as NULL. It returns the SQL table names used, in order.
func Export(ctx context.Context, path string, tables []Table) ([]string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	used := map[string]bool{}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		name := uniqueIdent(TableName(t.Name), used)
		if err := writeTable(ctx, db, name, t.Table); err != nil {
			return names, fmt.Errorf("export %s: %w", t.Name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func writeTable(ctx context.Context, db *sql.DB, name string, t *dataset.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return err
	}
	colUsed := map[string]bool{}
	defs := make([]string, len(t.Columns))
	numeric := make([]bool, len(t.Columns))
	for i, c := range t.Columns {
		numeric[i] = c.IsNumeric()
		typ := "TEXT"
		if numeric[i] {
			typ = "REAL"
		}
		defs[i] = quote(uniqueIdent(c.Name, colUsed)) + " " + typ
	}
	if len(defs) == 0 {
		return fmt.Errorf("table has no columns")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(defs, ", "))); err != nil {
		return err
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(defs)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(name), marks))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(t.Columns))
	for r := 0; r < t.Len(); r++ {
		for i, c := range t.Columns {
			args[i] = cellValue(c, r, numeric[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", r+1, err)
		}
	}
	return tx.Commit()
}

func cellValue(c *dataset.Column, r int, numeric bool) any {
	if strings.TrimSpace(c.Cells[r]) == "" {
		return nil
	}
	if numeric {
		v := c.Numeric()[r]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}
	return c.Cells[r]
}

// TableName turns a file name such as "Attitude Tukey.csv" into a SQL
// identifier ("attitude_tukey").
func TableName(label string) string {
	label = strings.TrimSuffix(label, ".csv")
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(label) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "t"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

func uniqueIdent(name string, used map[string]bool) string {
	if name == "" {
		name = "col"
	}
	cand := name
	for i := 2; used[strings.ToLower(cand)]; i++ {
		cand = fmt.Sprintf("%s_%d", name, i)
	}
	used[strings.ToLower(cand)] = true
	return cand
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
