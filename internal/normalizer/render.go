package normalizer

import (
	"strings"

	"github.com/Phaysik/database-normalizer/internal/table"
)

// Printable filters out tables with fewer than two columns; a single column
// relation carries nothing the other tables do not.
func Printable(tables []*table.Table) []*table.Table {
	out := make([]*table.Table, 0, len(tables))
	for _, t := range tables {
		if len(t.Columns) > 1 {
			out = append(out, t)
		}
	}
	return out
}

// Render prints the printable tables as CREATE TABLE statements separated by
// blank lines.
func Render(tables []*table.Table) string {
	printable := Printable(tables)
	if len(printable) == 0 {
		return ""
	}

	statements := make([]string, 0, len(printable))
	for _, t := range printable {
		statements = append(statements, RenderTable(t))
	}
	return strings.Join(statements, "\n\n") + "\n"
}

// RenderTable prints one CREATE TABLE statement.
func RenderTable(t *table.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE")
	if t.IfNotExists {
		b.WriteString(" IF NOT EXISTS")
	}
	b.WriteString(" " + t.Name + "(\n")

	clauses := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	for _, c := range t.Columns {
		clauses = append(clauses, "\t"+c.Name+" "+c.Definition.SQL())
	}
	if len(t.PrimaryKeys) > 0 {
		clauses = append(clauses, "\tPRIMARY KEY("+strings.Join(t.PrimaryKeys, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		clauses = append(clauses, "\tFOREIGN KEY ("+fk.Column+") REFERENCES "+fk.ReferencedTable+"("+fk.ReferencedColumn+")")
	}

	b.WriteString(strings.Join(clauses, ",\n"))
	b.WriteString("\n);")
	return b.String()
}
