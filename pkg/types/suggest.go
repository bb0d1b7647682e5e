package types

import (
	"github.com/agnivade/levenshtein"
)

// Suggest returns the option closest to word by edit distance, for use in
// resolution error messages. It returns "" when no option is close enough
// to be a plausible misspelling.
func Suggest(word string, options []string) string {
	best := ""
	bestDistance := -1
	for _, option := range options {
		d := levenshtein.ComputeDistance(word, option)
		if bestDistance == -1 || d < bestDistance {
			best, bestDistance = option, d
		}
	}
	if best == "" {
		return ""
	}
	// A suggestion further away than half the word is noise.
	limit := len(word)/2 + 1
	if bestDistance > limit {
		return ""
	}
	return best
}
