package builder

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pmezard/go-difflib/difflib"
)

// similarity compares two file contents line-wise and returns a ratio
// in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	matcher := difflib.NewMatcher(difflib.SplitLines(a), difflib.SplitLines(b))
	return matcher.Ratio()
}

// repeatsFailure reports whether a proposed change is close enough to a
// previously failed patch for the same path to be worth skipping.
// Exact repeats are caught by digest before any similarity pass.
func repeatsFailure(state *State, path, content string, threshold float64) bool {
	sum := sha256.Sum256([]byte(content))
	digest := hex.EncodeToString(sum[:])

	for _, patch := range state.FailedPatches {
		if patch.Path != path {
			continue
		}
		if patch.Digest == digest {
			return true
		}
		if similarity(patch.Content, content) >= threshold {
			return true
		}
	}
	return false
}
