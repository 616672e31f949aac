package sql

import (
	"regexp"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

// DefaultPseudoFields are computed or rule-introduced fields that pass
// validation without appearing in any table schema.
var DefaultPseudoFields = []string{
	"未清PO数量",
	"本月备货",
	"全链库存",
	"自然年",
	"财月",
	"财周",
	"财年",
	"Model",
}

// DefaultSkipTokens are bracketed tokens that are schema decoration rather
// than field references.
var DefaultSkipTokens = []string{
	"ff_idss",
	"dbo",
	"dtsupply",
	"condt",
	"commit",
	"summary",
}

// ValidationResult reports which referenced fields resolved against the
// knowledge store. Validation is advisory; an invalid field never blocks
// the generated SQL.
type ValidationResult struct {
	ValidFields   []string `json:"valid_fields"`
	MissingFields []string `json:"missing_fields"`
	AllValid      bool     `json:"all_valid"`
}

// FieldValidator checks field references in a statement against the table
// schemas in the knowledge store.
type FieldValidator struct {
	store        *knowledge.Store
	pseudoFields []string
	skipTokens   map[string]struct{}
}

// NewFieldValidator builds a validator. Nil pseudo-field or skip-token
// lists fall back to the defaults.
func NewFieldValidator(store *knowledge.Store, pseudoFields, skipTokens []string) *FieldValidator {
	if pseudoFields == nil {
		pseudoFields = DefaultPseudoFields
	}
	if skipTokens == nil {
		skipTokens = DefaultSkipTokens
	}
	skip := make(map[string]struct{}, len(skipTokens))
	for _, t := range skipTokens {
		skip[knowledge.NormalizeFieldName(t)] = struct{}{}
	}
	return &FieldValidator{store: store, pseudoFields: pseudoFields, skipTokens: skip}
}

var (
	tableSourcePattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([^\s,()]+)(?:\s+(?:AS\s+)?([A-Za-z_]\w*))?`)

	qualifiedRefPattern   = regexp.MustCompile(`(\w+)\.\[([^\]]+)\]`)
	bracketedTokenPattern = regexp.MustCompile(`\[([^\]]+)\]`)

	// Keywords that follow a table source and must not be mistaken for an
	// alias.
	reservedAfterTable = map[string]struct{}{
		"where": {}, "group": {}, "order": {}, "having": {}, "on": {},
		"inner": {}, "left": {}, "right": {}, "full": {}, "cross": {},
		"join": {}, "union": {}, "select": {}, "as": {},
	}
)

// Validate extracts every field reference from the statement and resolves
// it against the store. Qualified references resolve through the alias
// bound in FROM/JOIN; a reference whose alias is bound by no clause is
// missing unless the allow list covers it. Unqualified bracketed
// references resolve against any table. Pseudo fields pass on exact match
// first, then on substring match.
func (v *FieldValidator) Validate(sqlText string) ValidationResult {
	aliases := v.parseTableAliases(sqlText)

	result := ValidationResult{
		ValidFields:   []string{},
		MissingFields: []string{},
	}
	seen := make(map[string]struct{})
	record := func(ref string, ok bool) {
		if _, dup := seen[ref]; dup {
			return
		}
		seen[ref] = struct{}{}
		if ok {
			result.ValidFields = append(result.ValidFields, ref)
		} else {
			result.MissingFields = append(result.MissingFields, ref)
		}
	}

	// Qualified references: alias.[field]
	qualified := qualifiedRefPattern.FindAllStringSubmatchIndex(sqlText, -1)
	qualifiedBrackets := make(map[int]struct{}, len(qualified))
	for _, loc := range qualified {
		alias := sqlText[loc[2]:loc[3]]
		field := sqlText[loc[4]:loc[5]]
		// Mark the bracket position so the unqualified scan skips it
		qualifiedBrackets[loc[4]-1] = struct{}{}

		if v.skipField(field) {
			continue
		}
		// A schema-qualified table name like dbo.[Dtsupply_Summary] is not
		// a field reference
		if _, ok := v.store.LookupTable(field); ok {
			continue
		}
		table, bound := aliases[strings.ToLower(alias)]
		if !bound {
			// The qualifier may be a bare table name
			if _, ok := v.store.LookupTable(alias); ok {
				table, bound = alias, true
			}
		}
		ref := alias + ".[" + field + "]"
		if !bound {
			// An alias no FROM/JOIN clause binds cannot resolve against a
			// schema; only the pseudo-field allow list can rescue it.
			record(ref, v.pseudoKnown(field))
			continue
		}
		record(ref, v.fieldKnown(table, field))
	}

	// Unqualified bracketed references
	for _, loc := range bracketedTokenPattern.FindAllStringSubmatchIndex(sqlText, -1) {
		if _, isQualified := qualifiedBrackets[loc[0]]; isQualified {
			continue
		}
		field := sqlText[loc[2]:loc[3]]
		if v.skipField(field) {
			continue
		}
		// A bracketed table name in FROM is not a field reference
		if _, ok := v.store.LookupTable(field); ok {
			continue
		}
		record("["+field+"]", v.fieldKnown("", field))
	}

	result.AllValid = len(result.MissingFields) == 0
	return result
}

// parseTableAliases binds every FROM/JOIN alias to its table name.
func (v *FieldValidator) parseTableAliases(sqlText string) map[string]string {
	aliases := make(map[string]string)
	for _, m := range tableSourcePattern.FindAllStringSubmatch(sqlText, -1) {
		table, alias := m[1], m[2]
		if alias == "" {
			continue
		}
		if _, reserved := reservedAfterTable[strings.ToLower(alias)]; reserved {
			continue
		}
		aliases[strings.ToLower(alias)] = table
	}
	return aliases
}

// skipField reports whether the token is schema decoration to ignore.
func (v *FieldValidator) skipField(field string) bool {
	_, ok := v.skipTokens[knowledge.NormalizeFieldName(field)]
	return ok
}

// fieldKnown resolves a field against a bound table (or any table when the
// binding is unknown) and the pseudo-field allow list. Exact pseudo
// matches win before schema lookup; substring pseudo matches are the last
// resort so derived names like "全链库存DOI" still pass.
func (v *FieldValidator) fieldKnown(table, field string) bool {
	norm := knowledge.NormalizeFieldName(field)
	for _, pseudo := range v.pseudoFields {
		if knowledge.NormalizeFieldName(pseudo) == norm {
			return true
		}
	}
	if table != "" {
		if v.store.TableHasColumn(table, field) {
			return true
		}
	} else if v.store.AnyTableHasColumn(field) {
		return true
	}
	return v.pseudoKnown(field)
}

// pseudoKnown reports whether the field equals or contains an allow-listed
// pseudo field.
func (v *FieldValidator) pseudoKnown(field string) bool {
	norm := knowledge.NormalizeFieldName(field)
	for _, pseudo := range v.pseudoFields {
		if strings.Contains(norm, knowledge.NormalizeFieldName(pseudo)) {
			return true
		}
	}
	return false
}
