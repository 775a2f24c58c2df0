package module

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to name, or "" when nothing is close
// enough to be a plausible typo.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > len(name)/2+1 {
		return ""
	}
	return best
}

func unknownAttribute(kind, name string, known []string) error {
	if s := Suggest(name, known); s != "" {
		return fmt.Errorf("%w %q on %s, did you mean %q?", ErrUnknownAttribute, name, kind, s)
	}
	return fmt.Errorf("%w %q on %s", ErrUnknownAttribute, name, kind)
}
