package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

// Condition keys for the fiscal calendar fields.
const (
	KeyFiscalYear  = "自然年"
	KeyFiscalMonth = "财月"
	KeyFiscalWeek  = "财周"
)

var (
	yearTokenPattern  = regexp.MustCompile(`(\d{2})年`)
	monthTokenPattern = regexp.MustCompile(`(\d{1,2})月`)
)

// fullChainMarker flags a cumulative/full-chain aggregate request, which
// pins the fiscal week to the "ttl" wildcard.
const fullChainMarker = "全链"

// TimeScope is the explicit fiscal calendar scope a question established.
// Zero values mean the question did not pin that dimension.
type TimeScope struct {
	FiscalYear  int
	FiscalMonth string
	FiscalWeek  string
}

// ExtractTime detects calendar expressions in the normalized question and
// emits explicit fiscal conditions as discrete fragments. A two-digit year
// token "25年" becomes fiscal year 2025; a month token "7月" becomes the
// fiscal month string "7月"; a full-chain aggregate pins the fiscal week
// to 'ttl'. The fragments override any relative-date phrasing the
// synthesizer might otherwise invent.
func ExtractTime(question string) (TimeScope, []Condition) {
	var scope TimeScope
	var conds []Condition

	if m := yearTokenPattern.FindStringSubmatch(question); m != nil {
		n, _ := strconv.Atoi(m[1])
		scope.FiscalYear = 2000 + n
		conds = append(conds, Condition{
			Key:      knowledge.NormalizeFieldName(KeyFiscalYear),
			Fragment: fmt.Sprintf("%s = %d", KeyFiscalYear, scope.FiscalYear),
		})
	}
	if m := monthTokenPattern.FindStringSubmatch(question); m != nil {
		scope.FiscalMonth = m[1] + "月"
		conds = append(conds, Condition{
			Key:      knowledge.NormalizeFieldName(KeyFiscalMonth),
			Fragment: fmt.Sprintf("%s = '%s'", KeyFiscalMonth, scope.FiscalMonth),
		})
	}
	if strings.Contains(question, fullChainMarker) {
		scope.FiscalWeek = knowledge.HierarchyWildcard
		conds = append(conds, Condition{
			Key:      knowledge.NormalizeFieldName(KeyFiscalWeek),
			Fragment: fmt.Sprintf("%s = '%s'", KeyFiscalWeek, scope.FiscalWeek),
		})
	}
	return scope, conds
}

var (
	yearValuePattern   = regexp.MustCompile(`=\s*(\d{4})`)
	quotedValuePattern = regexp.MustCompile(`=\s*'([^']*)'`)
)

// ScopeFromConditions reconstructs the fiscal scope from an already merged
// condition list, so the repair stage sees conditions contributed by
// business rules as well as by ExtractTime. When a year or month is pinned
// but no week is, the week defaults to the 'ttl' aggregate.
func ScopeFromConditions(conds []Condition) TimeScope {
	var scope TimeScope
	for _, c := range conds {
		switch c.Key {
		case knowledge.NormalizeFieldName(KeyFiscalYear), "财年":
			if m := yearValuePattern.FindStringSubmatch(c.Fragment); m != nil {
				scope.FiscalYear, _ = strconv.Atoi(m[1])
			}
		case knowledge.NormalizeFieldName(KeyFiscalMonth):
			if m := quotedValuePattern.FindStringSubmatch(c.Fragment); m != nil {
				scope.FiscalMonth = m[1]
			}
		case knowledge.NormalizeFieldName(KeyFiscalWeek):
			if m := quotedValuePattern.FindStringSubmatch(c.Fragment); m != nil {
				scope.FiscalWeek = m[1]
			}
		}
	}
	if scope.FiscalWeek == "" && (scope.FiscalYear != 0 || scope.FiscalMonth != "") {
		scope.FiscalWeek = knowledge.HierarchyWildcard
	}
	return scope
}

// ProductConditions derives the product-scope fragments for a detected
// product term: a roadmap-family LIKE filter plus the group-level 'ttl'
// aggregate.
func ProductConditions(term knowledge.ProductTerm) []Condition {
	return []Condition{
		NewCondition(fmt.Sprintf("[%s] LIKE '%%%s%%'", knowledge.RoadmapFamilyField, term.Pattern)),
		NewCondition(fmt.Sprintf("[Group] = '%s'", knowledge.HierarchyWildcard)),
	}
}
