// Package normalize turns free-text descriptions into the cleaned token
// strings the rest of the pipeline operates on.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Normalizer is a pure text-to-token-string transform: lowercase, strip
// punctuation, drop stopwords, lemmatize. Safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New returns a Normalizer with the fixed English stopword set.
func New() *Normalizer {
	return &Normalizer{stopwords: stopwordSet()}
}

// Normalize converts text to lowercase alphanumeric tokens joined by single
// spaces, with stopwords removed and each token lemmatized. It is total: any
// input, including the empty string, yields a (possibly empty) string, and the
// function is idempotent. Stopwords are filtered again after lemmatization so
// a lemma that lands on a stopword cannot reappear on a second pass.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = foldDiacritics(text)
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, "")

	var out []string
	for _, tok := range strings.Fields(text) {
		if _, stop := n.stopwords[tok]; stop {
			continue
		}
		lemma := Lemmatize(tok)
		if lemma == "" {
			continue
		}
		if _, stop := n.stopwords[lemma]; stop {
			continue
		}
		out = append(out, lemma)
	}
	return strings.Join(out, " ")
}

// foldDiacritics decomposes accented characters and strips combining marks,
// so "moräne" and "morane" normalize identically.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
