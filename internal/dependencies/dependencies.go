// Package dependencies holds the functional and multi-valued dependencies
// declared for a table.
package dependencies

import "slices"

// Row groups every dependency with the same determinant.
type Row struct {
	Determinant string
	// Single lists functionally dependent columns (a -> b).
	Single []string
	// Multi lists multi-valued dependent columns (a ->> b).
	Multi []string
}

// NewRow creates a Row for determinant.
func NewRow(determinant string) *Row {
	return &Row{Determinant: determinant}
}

// AddSingle records a functional dependency. It returns false when the
// dependent is already listed.
func (r *Row) AddSingle(dependent string) bool {
	if slices.Contains(r.Single, dependent) {
		return false
	}
	r.Single = append(r.Single, dependent)
	return true
}

// AddMulti records a multi-valued dependency. It returns false when the
// dependent is already listed.
func (r *Row) AddMulti(dependent string) bool {
	if slices.Contains(r.Multi, dependent) {
		return false
	}
	r.Multi = append(r.Multi, dependent)
	return true
}

// Dependents returns single-valued then multi-valued dependents.
func (r *Row) Dependents() []string {
	out := make([]string, 0, len(r.Single)+len(r.Multi))
	out = append(out, r.Single...)
	return append(out, r.Multi...)
}

// DependsOn reports whether column is a dependent of this determinant.
func (r *Row) DependsOn(column string) bool {
	return slices.Contains(r.Single, column) || slices.Contains(r.Multi, column)
}

// Manager keeps dependency rows in declaration order.
type Manager struct {
	rows []*Row
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a row, or returns the existing row for the same determinant.
func (m *Manager) Add(determinant string) *Row {
	if row, ok := m.Row(determinant); ok {
		return row
	}
	row := NewRow(determinant)
	m.rows = append(m.rows, row)
	return row
}

// Row looks up the row of a determinant.
func (m *Manager) Row(determinant string) (*Row, bool) {
	for _, row := range m.rows {
		if row.Determinant == determinant {
			return row, true
		}
	}
	return nil, false
}

// Rows returns the rows in declaration order.
func (m *Manager) Rows() []*Row {
	return m.rows
}

// Len returns the number of determinants.
func (m *Manager) Len() int {
	return len(m.rows)
}

// IsDependent reports whether column is a dependent of any determinant.
func (m *Manager) IsDependent(column string) bool {
	for _, row := range m.rows {
		if row.DependsOn(column) {
			return true
		}
	}
	return false
}
