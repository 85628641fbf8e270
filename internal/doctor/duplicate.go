package doctor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/qipu-dev/qipu/internal/note"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Field weights for near-duplicate scoring (spec §4.10: "field-weighted
// token-set Jaccard"); title counts most, then tags, then body.
const (
	weightTitle = 3
	weightTags  = 2
	weightBody  = 1
)

// fieldWeightedTokens builds a token -> accumulated-weight map for n,
// dropping stop words, the way original_source/tests/cli/duplicates.rs's
// stop-word tests require.
func fieldWeightedTokens(n *note.Note) map[string]int {
	weights := map[string]int{}

	add := func(s string, w int) {
		for _, tok := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
			if stopWords[tok] {
				continue
			}

			weights[tok] += w
		}
	}

	add(n.Title, weightTitle)

	for _, tag := range n.Tags {
		add(tag, weightTags)
	}

	add(n.Body, weightBody)

	return weights
}

// jaccardSimilarity is the weighted Jaccard similarity between two
// token-weight maps: sum(min(a,b))/sum(max(a,b)) over the token union.
func jaccardSimilarity(a, b map[string]int) float64 {
	union := map[string]bool{}
	for t := range a {
		union[t] = true
	}

	for t := range b {
		union[t] = true
	}

	if len(union) == 0 {
		return 0
	}

	var minSum, maxSum float64

	for t := range union {
		wa, wb := a[t], b[t]
		if wa < wb {
			minSum += float64(wa)
			maxSum += float64(wb)
		} else {
			minSum += float64(wb)
			maxSum += float64(wa)
		}
	}

	if maxSum == 0 {
		return 0
	}

	return minSum / maxSum
}

// CheckNearDuplicates flags pairs of notes whose field-weighted token-set
// Jaccard similarity meets or exceeds threshold. O(n^2) — opt-in, the way
// the source CLI gates it behind `doctor --duplicates` (spec §4.10).
func CheckNearDuplicates(notes []*note.Note, threshold float64, result *Result) {
	tokens := make([]map[string]int, len(notes))
	for i, n := range notes {
		tokens[i] = fieldWeightedTokens(n)
	}

	for i := 0; i < len(notes); i++ {
		for j := i + 1; j < len(notes); j++ {
			sim := jaccardSimilarity(tokens[i], tokens[j])
			if sim >= threshold {
				result.add(SeverityWarning, "near-duplicate", notes[i].ID,
					fmt.Sprintf("near-duplicate of %s (similarity %.2f)", notes[j].ID, sim))
			}
		}
	}
}
