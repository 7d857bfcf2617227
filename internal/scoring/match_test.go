package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhrasePattern(t *testing.T) {
	re, err := phrasePattern("modular construction")
	require.NoError(t, err)

	assert.True(t, re.MatchString("modular construction"))
	assert.True(t, re.MatchString("uses modular  construction today"))
	assert.True(t, re.MatchString("modular\nconstruction"))
	assert.False(t, re.MatchString("modularconstruction"))

	word, err := phrasePattern("modular")
	require.NoError(t, err)
	assert.True(t, word.MatchString("a modular approach"))
	assert.False(t, word.MatchString("modularity"))
	assert.False(t, word.MatchString("unimodular"))

	_, err = phrasePattern("   ")
	assert.Error(t, err)
}

func TestPhrasePatternEscapesMeta(t *testing.T) {
	re, err := phrasePattern("design-build")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a design-build contract"))
	assert.False(t, re.MatchString("a designXbuild contract"))
}

func TestCountMatches(t *testing.T) {
	re, err := phrasePattern("net zero")
	require.NoError(t, err)
	assert.Equal(t, 2, countMatches(re, "net zero homes and net zero offices"))
	assert.Equal(t, 0, countMatches(re, "network of zero-day issues"))
}

func TestHasQuantitativeMarker(t *testing.T) {
	assert.True(t, hasQuantitativeMarker("rents rose 12%"))
	assert.True(t, hasQuantitativeMarker("vacancy fell 4.5 percent"))
	assert.True(t, hasQuantitativeMarker("a $50 million raise"))
	assert.True(t, hasQuantitativeMarker("priced at $ 2,400"))
	assert.False(t, hasQuantitativeMarker("percent of what exactly"))
	assert.False(t, hasQuantitativeMarker("dollars and sense"))
	assert.False(t, hasQuantitativeMarker("about 40 units"))
}

func TestNormalizeSource(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"JLL, Inc.", "jll"},
		{"CBRE Group, Inc.", "cbre"},
		{"Bisnow", "bisnow"},
		{"Cushman & Wakefield", "cushman & wakefield"},
		{"Acme Holding Co.", "acme holding"},
		{"  Construction Dive  ", "construction dive"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeSource(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  A \t B\nC "))
	assert.Equal(t, "", normalizeText("   "))
	assert.Equal(t, 3, wordCount("one two three"))
	assert.Equal(t, 0, wordCount(""))
}
