// Package table models the relational schema the normalizer reads and
// produces: tables, their columns, primary keys and foreign keys.
package table

import (
	"fmt"
	"slices"
)

// NoSize marks a column definition without an explicit length.
const NoSize int64 = -1

// ColumnDefinition describes the type of a column.
type ColumnDefinition struct {
	DataType string
	Nullable bool
	Size     int64
}

// NewColumnDefinition returns a NOT NULL definition without a size.
func NewColumnDefinition(dataType string) ColumnDefinition {
	return ColumnDefinition{DataType: dataType, Size: NoSize}
}

// HasSize reports whether an explicit length was declared.
func (d ColumnDefinition) HasSize() bool {
	return d.Size != NoSize
}

// Equal reports whether two definitions declare the same type.
func (d ColumnDefinition) Equal(other ColumnDefinition) bool {
	return d == other
}

// SQL renders the definition as it appears after the column name.
func (d ColumnDefinition) SQL() string {
	s := d.DataType
	if d.HasSize() {
		s += fmt.Sprintf("(%d)", d.Size)
	}
	if d.Nullable {
		return s + " NULL"
	}
	return s + " NOT NULL"
}

// Column is a named column of a table.
type Column struct {
	Name       string
	Definition ColumnDefinition
}

// ForeignKey links a column of a table to a column of another table.
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Table is a single relation.
type Table struct {
	Name        string
	IfNotExists bool
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column. Adding a column whose name already exists
// replaces nothing and returns false.
func (t *Table) AddColumn(c Column) bool {
	if t.HasColumn(c.Name) {
		return false
	}
	t.Columns = append(t.Columns, c)
	return true
}

// RemoveColumn deletes the named column and any key referring to it.
func (t *Table) RemoveColumn(name string) (Column, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return Column{}, false
	}
	removed := t.Columns[idx]
	t.Columns = slices.Delete(t.Columns, idx, idx+1)
	t.RemovePrimaryKey(name)
	t.ForeignKeys = slices.DeleteFunc(t.ForeignKeys, func(fk ForeignKey) bool {
		return fk.Column == name
	})
	return removed, true
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// ColumnNames lists the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// AddPrimaryKey marks a column as part of the primary key. Duplicates are
// ignored.
func (t *Table) AddPrimaryKey(name string) {
	if t.IsPrimaryKey(name) {
		return
	}
	t.PrimaryKeys = append(t.PrimaryKeys, name)
}

// RemovePrimaryKey drops a column from the primary key.
func (t *Table) RemovePrimaryKey(name string) {
	t.PrimaryKeys = slices.DeleteFunc(t.PrimaryKeys, func(k string) bool { return k == name })
}

// IsPrimaryKey reports whether the column is part of the primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	return slices.Contains(t.PrimaryKeys, name)
}

// AddForeignKey appends a foreign key. Duplicates are ignored.
func (t *Table) AddForeignKey(fk ForeignKey) {
	if slices.Contains(t.ForeignKeys, fk) {
		return
	}
	t.ForeignKeys = append(t.ForeignKeys, fk)
}

// NonKeyColumns lists the columns outside the primary key.
func (t *Table) NonKeyColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if !t.IsPrimaryKey(c.Name) {
			names = append(names, c.Name)
		}
	}
	return names
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return &Table{
		Name:        t.Name,
		IfNotExists: t.IfNotExists,
		Columns:     slices.Clone(t.Columns),
		PrimaryKeys: slices.Clone(t.PrimaryKeys),
		ForeignKeys: slices.Clone(t.ForeignKeys),
	}
}

func (t *Table) columnIndex(name string) int {
	return slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
}
