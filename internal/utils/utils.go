package utils

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateID returns a connection id.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateCode returns a random room code of n characters. Lookalike
// characters (0/O, 1/I) are left out so codes can be read aloud.
func GenerateCode(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeGuess folds a guess or secret for comparison.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PickWords returns up to n distinct words from words in random order.
func PickWords(words []string, n int) []string {
	seen := make(map[string]bool, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		key := NormalizeGuess(w)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, strings.TrimSpace(w))
	}

	// Fisher-Yates
	for i := len(unique) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		unique[i], unique[j] = unique[j], unique[i]
	}

	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}
