package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

// Trailer is the marker that introduces derived WHERE fragments in the
// processed question handed to the prompt builder.
const Trailer = "WHERE条件:"

var whitespacePattern = regexp.MustCompile(`\s+`)

// Result is the outcome of one normalization pass.
type Result struct {
	// Question is the question after substitutions, without the trailer.
	Question string
	// Conditions are the WHERE fragments derived from temporal rules, in
	// the order their rules matched.
	Conditions []Condition
}

// ruleMatch is one claimed span of the original question.
type ruleMatch struct {
	start, end  int
	replacement string
}

// Normalize applies the business rules to question in one pass over the
// immutable input. Rules arrive longest-term-first from the knowledge
// store, so a specific term such as "全链库存周转" claims its span before
// the shorter "库存" can. Every match locks the span it consumed: later
// rules match only unclaimed spans of the original text, never text a
// replacement introduced. Temporal rules contribute a condition and erase
// their spans; entity rules substitute in place. With zero rules this
// degrades to the identity function (modulo whitespace collapsing).
func Normalize(question string, rules []knowledge.BusinessRule) Result {
	var conds []Condition
	var matches []ruleMatch
	for _, rule := range rules {
		if rule.Term == "" {
			continue
		}
		replacement := rule.Replacement
		if rule.Type == knowledge.RuleTemporal {
			replacement = ""
		}
		matched := false
		for from := 0; from < len(question); {
			i := strings.Index(question[from:], rule.Term)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(rule.Term)
			if overlapsClaimed(matches, start, end) {
				from = start + 1
				continue
			}
			matches = append(matches, ruleMatch{start: start, end: end, replacement: replacement})
			matched = true
			from = end
		}
		if matched && rule.Type == knowledge.RuleTemporal {
			conds = append(conds, NewCondition(rule.Replacement))
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(question[last:m.start])
		b.WriteString(m.replacement)
		last = m.end
	}
	b.WriteString(question[last:])

	out := strings.TrimSpace(whitespacePattern.ReplaceAllString(b.String(), " "))
	return Result{Question: out, Conditions: conds}
}

func overlapsClaimed(matches []ruleMatch, start, end int) bool {
	for _, m := range matches {
		if start < m.end && m.start < end {
			return true
		}
	}
	return false
}

// WithTrailer appends the derived conditions to the processed question in
// the "WHERE条件: <c1> AND <c2>" form the synthesizer prompt expects.
// With no conditions the question is returned unchanged.
func WithTrailer(question string, conds []Condition) string {
	if len(conds) == 0 {
		return question
	}
	return question + " " + Trailer + " " + JoinFragments(conds)
}
