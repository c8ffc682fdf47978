package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions returned.
const MaxSuggestions = 3

// Suggestion is a candidate correction and its edit distance from the
// misspelled name.
type Suggestion struct {
	Value    string
	Distance int
}

// maxDistance scales the allowed edit distance with the length of the name,
// so that short names only match near-identical candidates.
func maxDistance(name string) int {
	switch n := len(name); {
	case n <= 3:
		return 1
	case n <= 5:
		return 2
	default:
		return 3
	}
}

// SuggestSimilar returns up to MaxSuggestions candidates that are close to
// target, closest first. Comparison is case-insensitive and exact matches
// are skipped.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	lower := strings.ToLower(target)
	limit := maxDistance(lower)
	var out []Suggestion
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if c == "" || lc == lower {
			continue
		}
		if d := editDistance(lower, lc); d <= limit {
			out = append(out, Suggestion{Value: c, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// FormatSuggestions renders suggestions as a hint, or "" when there are none.
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "Did you mean '" + suggestions[0].Value + "'?"
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = "'" + s.Value + "'"
	}
	return "Did you mean one of: " + strings.Join(quoted, ", ") + "?"
}

// editDistance is the Levenshtein distance between a and b, computed with two
// rolling rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return len(rb)
	}
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
