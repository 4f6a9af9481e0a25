package normalize

import "strings"

// irregularPlurals maps irregular plural nouns to their singular lemma.
var irregularPlurals = map[string]string{
	"children": "child",
	"feet":     "foot",
	"geese":    "goose",
	"men":      "man",
	"mice":     "mouse",
	"oxen":     "ox",
	"teeth":    "tooth",
	"women":    "woman",
}

// Lemmatize reduces a lowercase token to its noun lemma. It handles irregular
// plurals and the regular English plural suffixes, and leaves everything else
// untouched. Applying it twice yields the same result.
func Lemmatize(token string) string {
	if lemma, ok := irregularPlurals[token]; ok {
		return lemma
	}

	switch {
	case len(token) > 4 && strings.HasSuffix(token, "ies"):
		// berries -> berry
		return token[:len(token)-3] + "y"
	case len(token) > 4 && strings.HasSuffix(token, "sses"):
		// passes -> pass
		return token[:len(token)-2]
	case len(token) > 3 && (strings.HasSuffix(token, "xes") ||
		strings.HasSuffix(token, "zes") ||
		strings.HasSuffix(token, "ches") ||
		strings.HasSuffix(token, "shes")):
		// boxes -> box, churches -> church
		return token[:len(token)-2]
	case len(token) > 3 && strings.HasSuffix(token, "s") &&
		!strings.HasSuffix(token, "ss") &&
		!strings.HasSuffix(token, "us") &&
		!strings.HasSuffix(token, "is"):
		// boulders -> boulder
		return token[:len(token)-1]
	}
	return token
}
