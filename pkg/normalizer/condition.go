// Package normalizer rewrites a raw question into a normalized question
// plus an explicit list of derived WHERE fragments, by matching business
// and product vocabulary and calendar expressions against the knowledge
// store. All of it is pure string transformation with no I/O.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

// Condition is a derived WHERE fragment tagged with the field it
// constrains, so downstream stages can union fragments from different
// sources without duplicating a condition key.
type Condition struct {
	Key      string
	Fragment string
}

var (
	wherePrefixPattern  = regexp.MustCompile(`(?i)^\s*WHERE\s+`)
	conditionKeyPattern = regexp.MustCompile(`(?i)^\s*\[?([^\[\]=<>!]+?)\]?\s*(?:=|!=|<>|<|>|\bLIKE\b|\bIN\b)`)
)

// NewCondition builds a Condition from a raw fragment, stripping any
// leading "WHERE " token and deriving the key from the constrained field.
func NewCondition(fragment string) Condition {
	fragment = strings.TrimSpace(wherePrefixPattern.ReplaceAllString(fragment, ""))
	key := ""
	if m := conditionKeyPattern.FindStringSubmatch(fragment); m != nil {
		key = knowledge.NormalizeFieldName(m[1])
	}
	if key == "" {
		key = knowledge.NormalizeFieldName(fragment)
	}
	return Condition{Key: key, Fragment: fragment}
}

// Dedupe collapses conditions that constrain the same key, keeping the
// most specific fragment. A fragment pinning a literal value is more
// specific than one carrying the "ttl" wildcard; between two literals the
// later one wins. Key order follows first occurrence.
func Dedupe(conds []Condition) []Condition {
	var order []string
	byKey := make(map[string]Condition)
	for _, c := range conds {
		prev, seen := byKey[c.Key]
		if !seen {
			order = append(order, c.Key)
			byKey[c.Key] = c
			continue
		}
		if isWildcard(c.Fragment) && !isWildcard(prev.Fragment) {
			continue
		}
		byKey[c.Key] = c
	}
	out := make([]Condition, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

func isWildcard(fragment string) bool {
	return strings.Contains(fragment, "'"+knowledge.HierarchyWildcard+"'")
}

// JoinFragments renders conditions as "<c1> AND <c2> …" for the question
// trailer and for diagnostics.
func JoinFragments(conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, c.Fragment)
	}
	return strings.Join(parts, " AND ")
}
