package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// phrasePattern compiles a lexicon phrase into a word-boundary matcher.
// Substring hits inside larger words ("modular" in "modularity") must not
// count, so every phrase is anchored with \b on both sides; interior spaces
// tolerate arbitrary whitespace. Input text is lowercased before matching,
// so patterns are compiled lowercase.
func phrasePattern(phrase string) (*regexp.Regexp, error) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return nil, fmt.Errorf("empty phrase")
	}
	escaped := regexp.QuoteMeta(p)
	escaped = strings.ReplaceAll(escaped, " ", `\s+`)
	return regexp.Compile(`\b` + escaped + `\b`)
}

// countMatches returns the number of non-overlapping occurrences.
func countMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

var (
	// Quantitative markers: "40%", "3.5 percent", "$50K", "$2 billion".
	percentRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:%|percent)`)
	dollarRe  = regexp.MustCompile(`\$\s*\d`)

	sourcePunctRe  = regexp.MustCompile(`[.,'"()]+`)
	sourceSuffixRe = regexp.MustCompile(`\b(?:inc|llc|ltd|corp|co|company|group)\b\s*$`)
)

// hasQuantitativeMarker reports whether text carries hard numbers with
// units, which upgrades insight quality to high.
func hasQuantitativeMarker(text string) bool {
	return percentRe.MatchString(text) || dollarRe.MatchString(text)
}

// normalizeSource canonicalizes a source name for tier lookup: lowercase,
// punctuation stripped, trailing corporate suffixes ("Inc", "LLC") removed.
func normalizeSource(source string) string {
	s := strings.ToLower(strings.TrimSpace(source))
	s = sourcePunctRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	for {
		trimmed := strings.TrimSpace(sourceSuffixRe.ReplaceAllString(s, ""))
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// normalizeText lowercases and whitespace-normalizes scoring input.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
