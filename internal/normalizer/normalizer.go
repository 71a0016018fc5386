// Package normalizer decomposes a table into a set of tables in a requested
// normal form, driven by the functional and multi-valued dependencies
// declared for its columns.
//
// Each form first applies the weaker ones, so normalizing to 3NF also
// produces a 1NF and 2NF compliant schema. The first returned table is
// always the input table (possibly renamed to a link table); derived tables
// follow in the order they were created.
package normalizer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Phaysik/database-normalizer/internal/dependencies"
	"github.com/Phaysik/database-normalizer/internal/filemanager"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/logfields"
	"github.com/Phaysik/database-normalizer/internal/parser"
	"github.com/Phaysik/database-normalizer/internal/table"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for step-by-step debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer holds one table and its dependencies.
type Normalizer struct {
	form   Form
	source *table.Table
	deps   *dependencies.Manager
	logger *slog.Logger
}

// New creates a Normalizer. The table is cloned, so Normalize never mutates
// the caller's copy.
func New(form Form, t *table.Table, deps *dependencies.Manager, opts ...Option) *Normalizer {
	if deps == nil {
		deps = dependencies.NewManager()
	}
	n := &Normalizer{form: form, deps: deps, logger: slog.Default()}
	if t != nil {
		n.source = t.Clone()
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FromFiles reads and parses a dataset file and a dependency file. The
// dependency file is checked against the columns of the dataset table and
// its KEY declaration becomes part of the table's primary key.
func FromFiles(form Form, sqlPath, depPath string, opts ...Option) (*Normalizer, error) {
	sqlParser, err := parseFile(sqlPath)
	if err != nil {
		return nil, err
	}
	tbl := sqlParser.Table()
	if tbl == nil {
		return nil, errors.SyntaxError("the dataset does not contain a CREATE TABLE statement").
			WithContext("path", sqlPath).
			Build()
	}

	depParser, err := parseFile(depPath, parser.WithTable(tbl))
	if err != nil {
		return nil, err
	}

	deps := dependencies.NewManager()
	for _, p := range []*parser.Parser{sqlParser, depParser} {
		for _, key := range p.PrimaryKeys() {
			tbl.AddPrimaryKey(key)
		}
		for _, row := range p.Dependencies().Rows() {
			merged := deps.Add(row.Determinant)
			for _, dep := range row.Single {
				merged.AddSingle(dep)
			}
			for _, dep := range row.Multi {
				merged.AddMulti(dep)
			}
		}
	}

	return New(form, tbl, deps, opts...), nil
}

func parseFile(path string, opts ...parser.Option) (*parser.Parser, error) {
	text, err := filemanager.Read(path)
	if err != nil {
		return nil, err
	}
	p, err := parser.New(text, opts...)
	if err == nil {
		err = p.Parse()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySyntax, fmt.Sprintf("%s could not be parsed", path)).
			WithContext("path", path).
			UserAction().
			Build()
	}
	return p, nil
}

// Form returns the target form.
func (n *Normalizer) Form() Form {
	return n.form
}

// Table returns the input table.
func (n *Normalizer) Table() *table.Table {
	return n.source
}

// Dependencies returns the declared dependencies.
func (n *Normalizer) Dependencies() *dependencies.Manager {
	return n.deps
}

// Normalize computes the decomposition. Calling it again recomputes the
// same result from the untouched input.
func (n *Normalizer) Normalize() ([]*table.Table, error) {
	if !n.form.Valid() {
		return nil, errors.ValidationError(fmt.Sprintf("unsupported normal form %s", n.form)).Build()
	}
	if err := n.validate(); err != nil {
		return nil, err
	}

	r := newRun(n.source.Clone(), n.deps)
	steps := []struct {
		form  Form
		apply func()
	}{
		{FirstNF, r.firstNF},
		{SecondNF, r.secondNF},
		{ThirdNF, r.thirdNF},
		{BCNF, r.boyceCodd},
		{FourthNF, r.fourthNF},
		{FifthNF, r.fifthNF},
	}
	for _, step := range steps {
		if step.form > n.form {
			break
		}
		step.apply()
		n.logger.Debug("Applied normal form",
			logfields.Form(step.form.String()),
			logfields.Table(n.source.Name),
			logfields.Tables(len(r.tables)))
	}
	return r.tables, nil
}

func (n *Normalizer) validate() error {
	if n.source == nil || len(n.source.Columns) == 0 {
		return errors.NormalizeError("there is no table to normalize").Build()
	}
	for _, key := range n.source.PrimaryKeys {
		if !n.source.HasColumn(key) {
			return n.missingColumn(key, "primary key")
		}
	}
	for _, row := range n.deps.Rows() {
		if !n.source.HasColumn(row.Determinant) {
			return n.missingColumn(row.Determinant, "determinant")
		}
		for _, dep := range row.Dependents() {
			if !n.source.HasColumn(dep) {
				return n.missingColumn(dep, "dependent of "+row.Determinant)
			}
		}
	}
	return nil
}

func (n *Normalizer) missingColumn(column, role string) error {
	return errors.NormalizeError(fmt.Sprintf("the %s %q is not a column of table %q", role, column, n.source.Name)).
		WithContext("column", column).
		WithContext("table", n.source.Name).
		Build()
}

type pair struct {
	det string
	dep string
}

// run is the working state of one Normalize call.
type run struct {
	deps    *dependencies.Manager
	keys    []string
	defs    map[string]table.ColumnDefinition
	tables  []*table.Table
	derived map[string]*table.Table
}

func newRun(source *table.Table, deps *dependencies.Manager) *run {
	return &run{
		deps:    deps,
		tables:  []*table.Table{source},
		derived: make(map[string]*table.Table),
	}
}

func (r *run) source() *table.Table {
	return r.tables[0]
}

// firstNF gives the table a primary key and makes every column NOT NULL.
// Without a declared key, the determinants nobody depends on form it, or
// every column when there are none.
func (r *run) firstNF() {
	src := r.source()
	if len(src.PrimaryKeys) == 0 {
		keys := r.independentDeterminants()
		if len(keys) == 0 {
			keys = src.ColumnNames()
		}
		for _, key := range keys {
			src.AddPrimaryKey(key)
		}
	}

	r.defs = make(map[string]table.ColumnDefinition, len(src.Columns))
	for i := range src.Columns {
		src.Columns[i].Definition.Nullable = false
		r.defs[src.Columns[i].Name] = src.Columns[i].Definition
	}
	r.keys = slices.Clone(src.PrimaryKeys)
}

// secondNF moves columns that depend on only part of a composite key into a
// table keyed by that part.
func (r *run) secondNF() {
	partials := r.partialDependencies()
	if len(partials) == 0 {
		return
	}

	src := r.source()
	var created []*table.Table
	for _, key := range r.keys {
		var target *table.Table
		for _, p := range partials {
			if p.det != key || !src.HasColumn(p.dep) || src.IsPrimaryKey(p.dep) {
				continue
			}
			if target == nil {
				target = r.table(key)
				created = append(created, target)
			}
			r.move(src, target, p.dep)
		}
	}

	// Columns determined by a moved column follow it.
	for moved := true; moved; {
		moved = false
		for _, p := range r.transitiveDependencies() {
			if !src.HasColumn(p.dep) || src.IsPrimaryKey(p.dep) {
				continue
			}
			for _, t := range created {
				if t.HasColumn(p.det) {
					r.move(src, t, p.dep)
					moved = true
					break
				}
			}
		}
	}

	for _, t := range created {
		key := t.PrimaryKeys[0]
		src.AddForeignKey(table.ForeignKey{Column: key, ReferencedTable: t.Name, ReferencedColumn: key})
	}

	if len(src.NonKeyColumns()) == 0 && len(r.keys) > 1 {
		src.Name = TableName(r.keys...)
		src.IfNotExists = false
	}
}

// thirdNF moves columns determined by a non-key column into a table keyed
// by that determinant.
func (r *run) thirdNF() {
	for _, p := range r.transitiveDependencies() {
		from := r.holding(p.dep)
		if from == nil || slices.Equal(from.PrimaryKeys, []string{p.det}) || r.reaches(p.dep, p.det) {
			continue
		}
		target := r.table(p.det)
		r.move(from, target, p.dep)
		if holder := r.holderOf(p.det, from, target); holder != nil {
			holder.AddForeignKey(table.ForeignKey{Column: p.det, ReferencedTable: target.Name, ReferencedColumn: p.det})
		}
	}
}

// reaches reports whether column already determines target through the
// tables created so far.
func (r *run) reaches(column, target string) bool {
	seen := map[string]bool{column: true}
	queue := []string{column}
	for len(queue) > 0 {
		t, ok := r.derived[TableName(queue[0])]
		queue = queue[1:]
		if !ok {
			continue
		}
		for _, c := range t.ColumnNames() {
			if c == target {
				return true
			}
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return false
}

// boyceCodd handles a non-key column determining part of the key: the
// determinant replaces that key column, which moves into a table keyed by
// the determinant.
func (r *run) boyceCodd() {
	for _, p := range r.keyDependencies() {
		var from *table.Table
		for _, t := range r.tables {
			if t.HasColumn(p.det) && t.IsPrimaryKey(p.dep) {
				from = t
				break
			}
		}
		if from == nil {
			continue
		}
		target := r.table(p.det)
		if target == from {
			continue
		}
		r.move(from, target, p.dep)
		from.AddPrimaryKey(p.det)
		from.AddForeignKey(table.ForeignKey{Column: p.det, ReferencedTable: target.Name, ReferencedColumn: p.det})
	}
}

// fourthNF splits independent multi-valued facts about the same determinant
// into their own two-column tables. Only composite keys can hide them.
func (r *run) fourthNF() {
	if len(r.keys) < 2 {
		return
	}
	for _, row := range r.deps.Rows() {
		if len(row.Multi) < 2 {
			continue
		}
		for _, dep := range row.Multi {
			existing := slices.Clone(r.tables)
			r.table(row.Determinant, dep)
			for _, t := range existing {
				if t.HasColumn(row.Determinant) && t.HasColumn(dep) && !slices.Equal(t.PrimaryKeys, []string{dep}) {
					t.RemoveColumn(dep)
				}
			}
		}
	}
}

// fifthNF resolves join dependencies: when a determines b and c while b
// also determines c, the three facts are stored pairwise. A table keyed by
// a join column keeps it along with its other dependents.
func (r *run) fifthNF() {
	joins := r.joinDependencies()
	if len(joins) == 0 {
		return
	}

	existing := slices.Clone(r.tables)
	for _, p := range joins {
		r.table(p.det, p.dep)
	}
	for _, p := range joins {
		for _, t := range existing {
			if !slices.Equal(t.PrimaryKeys, []string{p.dep}) {
				t.RemoveColumn(p.dep)
			}
		}
	}
}

// table returns the derived table keyed by columns, creating it with those
// columns on first use.
func (r *run) table(columns ...string) *table.Table {
	name := TableName(columns...)
	if t, ok := r.derived[name]; ok {
		return t
	}
	t := table.New(name)
	for _, c := range columns {
		t.AddColumn(table.Column{Name: c, Definition: r.defs[c]})
		t.AddPrimaryKey(c)
	}
	r.derived[name] = t
	r.tables = append(r.tables, t)
	return t
}

// move transfers a column with its foreign keys. The column is no longer
// part of the source key afterwards.
func (r *run) move(from, to *table.Table, column string) {
	var fks []table.ForeignKey
	for _, fk := range from.ForeignKeys {
		if fk.Column == column {
			fks = append(fks, fk)
		}
	}
	col, ok := from.RemoveColumn(column)
	if !ok {
		return
	}
	to.AddColumn(col)
	for _, fk := range fks {
		to.AddForeignKey(fk)
	}
}

// holding returns the first table containing column outside its key.
func (r *run) holding(column string) *table.Table {
	for _, t := range r.tables {
		if t.HasColumn(column) && !t.IsPrimaryKey(column) {
			return t
		}
	}
	return nil
}

// holderOf picks the table that should reference the determinant's table:
// preferred when it still has the column, otherwise the first other table
// that does.
func (r *run) holderOf(column string, preferred, exclude *table.Table) *table.Table {
	if preferred.HasColumn(column) {
		return preferred
	}
	for _, t := range r.tables {
		if t != exclude && t.HasColumn(column) {
			return t
		}
	}
	return nil
}

func (r *run) isKey(column string) bool {
	return slices.Contains(r.keys, column)
}

func (r *run) independentDeterminants() []string {
	var out []string
	for _, row := range r.deps.Rows() {
		if !r.deps.IsDependent(row.Determinant) {
			out = append(out, row.Determinant)
		}
	}
	return out
}

// partialDependencies lists (key column, dependent) pairs where the
// dependent is determined, functionally or multi-valued, by some but not all
// key columns.
func (r *run) partialDependencies() []pair {
	if len(r.keys) < 2 {
		return nil
	}

	byKey := make(map[string][]string, len(r.keys))
	counts := make(map[string]int)
	for _, key := range r.keys {
		row, ok := r.deps.Row(key)
		if !ok {
			continue
		}
		for _, dep := range row.Dependents() {
			if r.isKey(dep) {
				continue
			}
			byKey[key] = append(byKey[key], dep)
			counts[dep]++
		}
	}

	var out []pair
	for _, key := range r.keys {
		for _, dep := range byKey[key] {
			if counts[dep] != len(r.keys) {
				out = append(out, pair{det: key, dep: dep})
			}
		}
	}
	return out
}

// transitiveDependencies lists non-key determinants with their non-key
// dependents of either kind.
func (r *run) transitiveDependencies() []pair {
	var out []pair
	for _, row := range r.deps.Rows() {
		if r.isKey(row.Determinant) {
			continue
		}
		for _, dep := range row.Dependents() {
			if !r.isKey(dep) {
				out = append(out, pair{det: row.Determinant, dep: dep})
			}
		}
	}
	return out
}

// keyDependencies lists non-key determinants of key columns.
func (r *run) keyDependencies() []pair {
	var out []pair
	for _, row := range r.deps.Rows() {
		if r.isKey(row.Determinant) {
			continue
		}
		for _, dep := range row.Single {
			if r.isKey(dep) {
				out = append(out, pair{det: row.Determinant, dep: dep})
			}
		}
	}
	return out
}

// joinDependencies finds a -> (b, c) with b -> c and returns the pairs
// (a, b), (a, c) and (b, c), without duplicates.
func (r *run) joinDependencies() []pair {
	var out []pair
	add := func(p pair) {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}

	rows := r.deps.Rows()
	for _, a := range rows {
		if len(a.Single) < 2 {
			continue
		}
		for _, b := range rows {
			if b == a || !slices.Contains(a.Single, b.Determinant) {
				continue
			}
			for _, c := range b.Single {
				if slices.Contains(a.Single, c) {
					add(pair{det: a.Determinant, dep: b.Determinant})
					add(pair{det: a.Determinant, dep: c})
					add(pair{det: b.Determinant, dep: c})
				}
			}
		}
	}
	return out
}
