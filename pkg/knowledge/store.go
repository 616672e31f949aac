// Package knowledge holds the read-only mappings that drive SQL generation:
// table schemas, join relationships, business-term rules, product hierarchy
// terms and historical question/SQL pairs. A Store is built once at process
// start and never mutated afterwards, so it is safe for concurrent readers.
package knowledge

import (
	"sort"
	"strings"
)

// RuleType classifies how a business rule is applied to a question.
type RuleType string

const (
	// RuleEntity rules replace the matched term in place with a fragment.
	RuleEntity RuleType = "entity"
	// RuleTemporal rules contribute a WHERE fragment and erase the matched
	// term from the question so it cannot trigger a second substitution.
	RuleTemporal RuleType = "temporal"
)

// Column is a single column of a table schema.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"type,omitempty"`
}

// Table is a table schema as the knowledge documents describe it.
// The name may carry schema qualification (db.schema.table).
type Table struct {
	Name    string
	Columns []Column
}

// Relationship is a join hint between two tables. It is prompt context
// only; nothing validates it structurally.
type Relationship struct {
	Table1        string
	Field1        string
	Table2        string
	Field2        string
	JoinCondition string
}

// BusinessRule maps a surface term from a question to a SQL fragment.
type BusinessRule struct {
	Term        string
	Replacement string
	Type        RuleType
}

// ProductTerm maps a product keyword to the hierarchy pattern it stands
// for, plus the roadmap families that pattern was observed in.
type ProductTerm struct {
	Keyword  string
	Pattern  string
	Families []string
}

// Example is a historical question/SQL pair used as few-shot context.
type Example struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// Store is the immutable knowledge snapshot a request pipeline runs against.
type Store struct {
	tables        []Table
	tableIdx      map[string]int
	relationships []Relationship
	rules         []BusinessRule
	products      []ProductTerm
	examples      []Example
}

// New builds a Store from already-parsed knowledge. Tables are indexed by
// normalized name (case-insensitive, schema decoration stripped) and rules
// are ordered longest-term-first so specific terms are never shadowed by
// terms they contain.
func New(tables []Table, relationships []Relationship, rules []BusinessRule, products []ProductTerm, examples []Example) *Store {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	idx := make(map[string]int, len(sorted))
	for i, t := range sorted {
		idx[NormalizeTableName(t.Name)] = i
	}

	ordered := make([]BusinessRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i].Term) > len(ordered[j].Term) })

	return &Store{
		tables:        sorted,
		tableIdx:      idx,
		relationships: relationships,
		rules:         ordered,
		products:      products,
		examples:      examples,
	}
}

// Tables returns all table schemas in name order.
func (s *Store) Tables() []Table { return s.tables }

// Relationships returns the join hints.
func (s *Store) Relationships() []Relationship { return s.relationships }

// Rules returns the business rules ordered longest-term-first.
func (s *Store) Rules() []BusinessRule { return s.rules }

// Examples returns the historical question/SQL pairs in insertion order.
func (s *Store) Examples() []Example { return s.examples }

// LookupTable resolves a possibly decorated table name against the store.
func (s *Store) LookupTable(name string) (Table, bool) {
	i, ok := s.tableIdx[NormalizeTableName(name)]
	if !ok {
		return Table{}, false
	}
	return s.tables[i], true
}

// TableHasColumn reports whether the named table defines the field
// (case-insensitive, bracket decoration ignored).
func (s *Store) TableHasColumn(table, field string) bool {
	t, ok := s.LookupTable(table)
	if !ok {
		return false
	}
	want := NormalizeFieldName(field)
	for _, c := range t.Columns {
		if NormalizeFieldName(c.Name) == want {
			return true
		}
	}
	return false
}

// AnyTableHasColumn reports whether any table defines the field.
func (s *Store) AnyTableHasColumn(field string) bool {
	want := NormalizeFieldName(field)
	for _, t := range s.tables {
		for _, c := range t.Columns {
			if NormalizeFieldName(c.Name) == want {
				return true
			}
		}
	}
	return false
}

// NormalizeTableName strips schema qualification and bracket decoration
// and lower-cases the result, e.g. "FF_IDSS.dbo.[Dtsupply_Summary]" ->
// "dtsupply_summary".
func NormalizeTableName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return NormalizeFieldName(name)
}

// NormalizeFieldName strips bracket decoration and lower-cases the result.
func NormalizeFieldName(name string) string {
	name = strings.NewReplacer("[", "", "]", "").Replace(name)
	return strings.ToLower(strings.TrimSpace(name))
}
