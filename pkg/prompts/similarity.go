// Package prompts assembles the SQL generation prompt from the knowledge
// store and the processed question. Prompt text is deterministic for a
// given store snapshot and question, which keeps prompt regressions
// diffable in tests.
package prompts

import (
	"sort"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
)

// DefaultExampleCount is how many historical pairs the prompt carries.
const DefaultExampleCount = 3

// bigrams returns the set of rune bigrams of s, lower-cased. Single-rune
// strings contribute their one rune as a degenerate bigram so they still
// compare non-trivially.
func bigrams(s string) map[string]int {
	runes := []rune(strings.ToLower(s))
	set := make(map[string]int)
	if len(runes) == 1 {
		set[string(runes)]++
		return set
	}
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])]++
	}
	return set
}

// Similarity is the Dice coefficient over rune bigrams, in [0, 1].
// Rune bigrams keep the measure usable for CJK text, where word
// tokenization is not available.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ba, bb := bigrams(a), bigrams(b)
	var total, overlap int
	for bg, n := range ba {
		total += n
		if m := bb[bg]; m > 0 {
			if n < m {
				overlap += n
			} else {
				overlap += m
			}
		}
	}
	for _, n := range bb {
		total += n
	}
	if total == 0 {
		return 0
	}
	return 2 * float64(overlap) / float64(total)
}

// RankExamples returns the top-k historical pairs by question similarity,
// most similar first. Ties keep insertion order, so ranking is stable
// across runs.
func RankExamples(question string, examples []knowledge.Example, k int) []knowledge.Example {
	if k <= 0 || len(examples) == 0 {
		return nil
	}
	type scored struct {
		ex    knowledge.Example
		score float64
	}
	ranked := make([]scored, 0, len(examples))
	for _, ex := range examples {
		ranked = append(ranked, scored{ex: ex, score: Similarity(question, ex.Question)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]knowledge.Example, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.ex)
	}
	return out
}
