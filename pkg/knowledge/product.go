package knowledge

import (
	"sort"
	"strings"
)

// RoadmapFamilyField is the hierarchy field product terms are derived from.
const RoadmapFamilyField = "Roadmap Family"

// HierarchyWildcard marks a record that aggregates across the finer
// hierarchy dimension rather than naming a concrete family.
const HierarchyWildcard = "ttl"

// defaultProductPatterns seeds the keyword -> canonical pattern mapping.
// Keywords only survive Store construction when at least one product record
// carries a roadmap family matching the pattern.
var defaultProductPatterns = map[string]string{
	"510S":    "510S",
	"510s":    "510S",
	"geek":    "Geek",
	"GeekPro": "Geek",
	"小新":      "小新",
	"拯救者":     "拯救者",
	"AIO":     "AIO",
	"BOX":     "BOX",
}

// BuildProductTerms derives product terms from raw product records. Records
// whose roadmap family is the "ttl" wildcard are skipped; keywords whose
// pattern matches no observed family are dropped. The result is ordered
// longest-keyword-first so e.g. "GeekPro" wins over "geek".
func BuildProductTerms(records map[string]map[string]any) []ProductTerm {
	families := make(map[string]struct{})
	for _, rec := range records {
		fam, _ := rec[RoadmapFamilyField].(string)
		if fam != "" && fam != HierarchyWildcard {
			families[fam] = struct{}{}
		}
	}

	var terms []ProductTerm
	for keyword, pattern := range defaultProductPatterns {
		var matched []string
		for fam := range families {
			if strings.Contains(fam, pattern) {
				matched = append(matched, fam)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		terms = append(terms, ProductTerm{Keyword: keyword, Pattern: pattern, Families: matched})
	}

	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i].Keyword) != len(terms[j].Keyword) {
			return len(terms[i].Keyword) > len(terms[j].Keyword)
		}
		return terms[i].Keyword < terms[j].Keyword
	})
	return terms
}

// DetectProduct finds the first product term whose keyword occurs in the
// question (case-insensitive). Longer keywords are tried first.
func (s *Store) DetectProduct(question string) (ProductTerm, bool) {
	lower := strings.ToLower(question)
	for _, term := range s.products {
		if strings.Contains(lower, strings.ToLower(term.Keyword)) {
			return term, true
		}
	}
	return ProductTerm{}, false
}
