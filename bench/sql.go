package bench

import (
	"strings"

	"github.com/google/uuid"
)

// MaxBindParameters is the smallest per-statement bind parameter limit of
// the supported engines: SQLite's SQLITE_MAX_VARIABLE_NUMBER default of
// 32766. PostgreSQL and MySQL allow 65535.
const MaxBindParameters = 32766

// MaxBatchSize returns the largest batch whose insert statement for p stays
// within MaxBindParameters.
func MaxBatchSize(p Profile) int {
	return MaxBindParameters / len(p.Columns())
}

func createTableSQL(d Dialect, table string, p Profile) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(table)
	b.WriteString(" (")
	for _, c := range p.Columns() {
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(d.ColumnType(c))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(", ")
	}
	b.WriteString("PRIMARY KEY (")
	b.WriteString(p.Columns()[0].Name)
	b.WriteString("))")
	b.WriteString(d.TableOptions())
	return b.String()
}

// insertSQL builds a statement inserting rows tuples.
func insertSQL(d Dialect, table string, p Profile, rows int) string {
	cols := p.Columns()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
	}
	b.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(",\n")
		}
		b.WriteByte('(')
		for i := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func selectSQL(d Dialect, table string, p Profile) string {
	return "SELECT * FROM " + table + " WHERE " + p.Columns()[0].Name + " = " + d.Placeholder(1)
}

func dropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

// rowArgs appends the bound key followed by the profile values for one row.
func rowArgs(args []any, d Dialect, key uuid.UUID, values []any) []any {
	args = append(args, d.BindKey(key))
	return append(args, values...)
}
