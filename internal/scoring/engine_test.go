package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

// fillerBody is keyword-free text used to satisfy the minimum content length
// without touching any scoring table.
const fillerBody = "the crew met on site early and poured the slab before noon " +
	"while the weather held clear and calm all day"

func TestScoreFullStack(t *testing.T) {
	e := newTestEngine(t)

	res := e.Score(Input{
		Title: "A Builder Grew From Ten Homes to a National Platform",
		Body: "Using modular construction and a disciplined methodology, the firm " +
			"lifted roi to 18% and reduced costs by $2 million across its portfolio.",
		Source: "JLL",
	})

	// opportunities: roi(5) + portfolio(5) = 10 * 1.2 = 12
	// practices: "modular construction"(10) + modular(5) = 15 * 1.0 = 15
	assert.InDelta(t, 12.0, res.ThemeScores[ThemeOpportunities], 0.001)
	assert.InDelta(t, 15.0, res.ThemeScores[ThemePractices], 0.001)
	assert.Zero(t, res.ThemeScores[ThemeSystemsCodes])
	assert.Zero(t, res.ThemeScores[ThemeVision])

	assert.Equal(t, []Theme{ThemeOpportunities, ThemePractices}, res.MatchedThemes)
	assert.Equal(t, ThemePractices, res.PrimaryTheme)

	// transformative * impact * prescriptive
	assert.InDelta(t, 1.4*1.5*1.3, res.NarrativeBonus, 0.0001)
	assert.Equal(t, QualityHigh, res.QualityLevel)
	assert.InDelta(t, 2.0, res.InsightBonus, 0.0001)
	assert.Equal(t, TierOne, res.SourceTier)
	assert.InDelta(t, 1.5, res.CredibilityBonus, 0.0001)
	assert.InDelta(t, 1.5, res.EnhancedBonus, 0.0001) // scalable_process via "methodology"

	// 27 * 2.73 * 2.0 * 1.5 * 1.5
	assert.InDelta(t, 331.695, res.TotalScore, 0.001)
	assert.Equal(t, 22, res.WordCount)
	assert.False(t, res.Excluded)
	assert.True(t, res.Include)
}

func TestScoreMultiplierCompounding(t *testing.T) {
	e := newTestEngine(t)

	// Exactly two narrative sets fire (transformative via "grew from",
	// impact via "reduced costs by"); insight, credibility and enhanced all
	// stay neutral, so the total is the theme sum times 1.4*1.5.
	res := e.Score(Input{
		Body: "The team grew from a small shop using modular construction " +
			"and reduced costs by a wide margin over several busy years.",
	})

	assert.InDelta(t, 2.1, res.NarrativeBonus, 0.0001)
	assert.InDelta(t, 1.0, res.InsightBonus, 0.0001)
	assert.InDelta(t, 1.0, res.CredibilityBonus, 0.0001)
	assert.InDelta(t, 1.0, res.EnhancedBonus, 0.0001)

	sum := 0.0
	for _, s := range res.ThemeScores {
		sum += s
	}
	assert.InDelta(t, sum*2.1, res.TotalScore, 0.001)
}

func TestScoreDeterministic(t *testing.T) {
	e := newTestEngine(t)
	in := Input{
		Title:  "Zoning Reform Unlocks Transit-Oriented Development",
		Body:   fillerBody + " after the city approved upzoning near two stations",
		Source: "Bisnow",
	}
	first := e.Score(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Score(in))
	}
}

func TestScoreEmptyInput(t *testing.T) {
	e := newTestEngine(t)
	res := e.Score(Input{})

	for _, theme := range Themes {
		assert.Zero(t, res.ThemeScores[theme])
	}
	assert.Empty(t, res.MatchedThemes)
	assert.Empty(t, string(res.PrimaryTheme))
	assert.InDelta(t, 1.0, res.NarrativeBonus, 0.0001)
	assert.Zero(t, res.TotalScore)
	assert.False(t, res.Excluded)
	assert.False(t, res.Include)
}

func TestScoreWordBoundaries(t *testing.T) {
	e := newTestEngine(t)

	// "modularity" must not count as "modular".
	res := e.Score(Input{Body: "a lecture on modularity in software systems " + fillerBody})
	assert.Zero(t, res.ThemeScores[ThemePractices])

	// The phrase still matches across a line break.
	res = e.Score(Input{Body: "crews adopted modular\nconstruction on the tower " + fillerBody})
	assert.InDelta(t, 15.0, res.ThemeScores[ThemePractices], 0.001)
}

func TestScoreTitleCountsDouble(t *testing.T) {
	e := newTestEngine(t)

	inTitle := e.Score(Input{Title: "Modular Construction", Body: fillerBody})
	inBody := e.Score(Input{Body: "modular construction " + fillerBody})

	assert.InDelta(t, 2*inBody.ThemeScores[ThemePractices],
		inTitle.ThemeScores[ThemePractices], 0.001)
}

func TestScoreLengthNormalization(t *testing.T) {
	e := newTestEngine(t)

	short := e.Score(Input{Body: "modular construction " + fillerBody})
	long := e.Score(Input{
		Body: "modular construction " + strings.Repeat("lorem ipsum dolor sit amet ", 40),
	})

	// 202 words of text: raw 15 divided by 2.02.
	assert.InDelta(t, 15.0/2.02, long.ThemeScores[ThemePractices], 0.001)
	assert.Less(t, long.ThemeScores[ThemePractices], short.ThemeScores[ThemePractices])
}

func TestScoreMonotonicUnderNormThreshold(t *testing.T) {
	e := newTestEngine(t)

	// Below 100 words the normalizer is pinned at 1, so adding a keyword
	// occurrence can only raise the score.
	base := e.Score(Input{Body: "modular construction " + fillerBody})
	more := e.Score(Input{Body: "modular construction modular construction " + fillerBody})

	assert.GreaterOrEqual(t, more.TotalScore, base.TotalScore)
	assert.Greater(t, more.ThemeScores[ThemePractices], base.ThemeScores[ThemePractices])
}

func TestScoreExclusionVeto(t *testing.T) {
	e := newTestEngine(t)

	res := e.Score(Input{
		Title: "Ten Sculptural Pieces for the Modern Home",
		Body: "This sculptural lounge chair pairs with a walnut table and a " +
			"soft lamp for interior design lovers everywhere this fall season.",
	})

	assert.True(t, res.Excluded)
	assert.False(t, res.Include)
	assert.Zero(t, res.TotalScore)
}

func TestScoreExclusionPenaltyOnStrongArticle(t *testing.T) {
	e := newTestEngine(t)

	// Identical to the full-stack article plus one denylist word: the
	// penalty comes off the multiplied total and inclusion is vetoed even
	// though the remainder clears the threshold.
	res := e.Score(Input{
		Title: "A Builder Grew From Ten Homes to a National Platform",
		Body: "Using modular construction and a disciplined methodology, the firm " +
			"lifted roi to 18% and reduced costs by $2 million across its portfolio. chair",
		Source: "JLL",
	})

	assert.True(t, res.Excluded)
	assert.InDelta(t, 331.695-100.0, res.TotalScore, 0.001)
	assert.False(t, res.Include)
}

func TestScoreMinContentLength(t *testing.T) {
	e := newTestEngine(t)

	res := e.Score(Input{
		Title:  "Modular Construction Roadmap and Methodology",
		Body:   "A short teaser only.",
		Source: "JLL",
	})

	assert.False(t, res.Include)
	assert.Less(t, res.WordCount, DefaultConfig().MinContentLength)
}

func TestScoreSourceTiers(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		source string
		tier   string
		bonus  float64
	}{
		{"JLL, Inc.", TierOne, 1.5},
		{"Marcus & Millichap", TierOne, 1.5},
		{"Bisnow", TierTwo, 1.3},
		{"Construction Dive", TierThree, 1.2},
		{"The Boston Consulting Group", TierResearch, 1.4},
		{"Random Blog", TierUnranked, 1.0},
		{"", TierUnranked, 1.0},
	}
	for _, tc := range cases {
		res := e.Score(Input{Body: fillerBody, Source: tc.source})
		assert.Equal(t, tc.tier, res.SourceTier, "source %q", tc.source)
		assert.InDelta(t, tc.bonus, res.CredibilityBonus, 0.0001, "source %q", tc.source)
	}
}

func TestScoreInsightQualityPrecedence(t *testing.T) {
	e := newTestEngine(t)

	// High- and low-value phrases together resolve high.
	res := e.Score(Input{Body: "a case study behind the press release " + fillerBody})
	assert.Equal(t, QualityHigh, res.QualityLevel)
	assert.InDelta(t, 2.0, res.InsightBonus, 0.0001)

	// Quantitative markers alone count as high.
	res = e.Score(Input{Body: "vacancy fell 4.5 percent this quarter " + fillerBody})
	assert.Equal(t, QualityHigh, res.QualityLevel)

	res = e.Score(Input{Body: "a bold concept for the future of housing " + fillerBody})
	assert.Equal(t, QualityMedium, res.QualityLevel)
	assert.InDelta(t, 1.2, res.InsightBonus, 0.0001)

	res = e.Score(Input{Body: "the press release praised the grand opening " + fillerBody})
	assert.Equal(t, QualityLow, res.QualityLevel)
	assert.InDelta(t, 0.7, res.InsightBonus, 0.0001)

	res = e.Score(Input{Body: fillerBody})
	assert.Equal(t, QualityNeutral, res.QualityLevel)
	assert.InDelta(t, 1.0, res.InsightBonus, 0.0001)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"negative min score":   func(c *Config) { c.MinCompositeScore = -1 },
		"negative min length":  func(c *Config) { c.MinContentLength = -5 },
		"zero norm window":     func(c *Config) { c.LengthNormWords = 0 },
		"zero score cap":       func(c *Config) { c.ThemeScoreCap = 0 },
		"empty lexicon":        func(c *Config) { c.ThemeLexicon = nil },
		"missing theme weight": func(c *Config) { delete(c.ThemeWeights, ThemeVision) },
		"zero keyword weight": func(c *Config) {
			c.ThemeLexicon[ThemePractices][0].Weight = 0
		},
		"bad narrative multiplier": func(c *Config) { c.Narrative[0].Multiplier = 0 },
		"bad tier multiplier":      func(c *Config) { c.TierMultiplier[TierOne] = -1 },
		"zero insight bonus":       func(c *Config) { c.HighValueBonus = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := NewEngine(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSortThemes(t *testing.T) {
	in := []Theme{ThemeVision, ThemeOpportunities, ThemeSystemsCodes}
	assert.Equal(t,
		[]Theme{ThemeOpportunities, ThemeSystemsCodes, ThemeVision},
		SortThemes(in))
	// input untouched
	assert.Equal(t, []Theme{ThemeVision, ThemeOpportunities, ThemeSystemsCodes}, in)
}
