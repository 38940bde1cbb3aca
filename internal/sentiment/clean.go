package sentiment

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9 ]+`)
	nonLetter       = regexp.MustCompile(`[^a-z\s]+`)
)

// foldDiacritics strips combining marks so "café" and "cafe" share a token.
func foldDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// CleanText lowercases, drops everything but ASCII letters, digits and spaces,
// and collapses whitespace.
func CleanText(text string) string {
	text = strings.ToLower(foldDiacritics(text))
	text = nonAlphanumeric.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// cleanLetters is CleanText restricted to letters.
func cleanLetters(text string) string {
	text = strings.ToLower(foldDiacritics(text))
	text = nonLetter.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// stopWords excludes negations, which carry sentiment.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "of": {}, "at": {},
	"by": {}, "for": {}, "with": {}, "about": {}, "to": {}, "from": {}, "in": {}, "on": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "it": {},
	"its": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "me": {}, "my": {},
	"we": {}, "our": {}, "you": {}, "your": {}, "he": {}, "she": {}, "they": {}, "them": {},
	"his": {}, "her": {}, "their": {}, "as": {}, "so": {}, "than": {}, "too": {}, "very": {},
	"s": {}, "t": {}, "d": {}, "ll": {}, "m": {}, "re": {}, "ve": {}, "has": {}, "have": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "just": {}, "which": {}, "who": {},
	"what": {}, "there": {}, "here": {}, "all": {}, "any": {}, "some": {}, "into": {}, "up": {},
	"out": {}, "more": {}, "most": {}, "such": {}, "can": {}, "would": {}, "one": {},
}

// tokenize returns content tokens of a cleaned text.
func tokenize(text string) []string {
	fields := strings.Fields(CleanText(text))
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// ngrams returns unigrams followed by bigrams.
func ngrams(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
