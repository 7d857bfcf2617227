package scoring

import "fmt"

// Keyword is one lexicon entry: a phrase (or single word) with its weight.
type Keyword struct {
	Phrase string
	Weight float64
}

// SignalSet is a named phrase set contributing a multiplicative bonus when
// any of its phrases appears in the text.
type SignalSet struct {
	Name       string
	Phrases    []string
	Multiplier float64
}

// Config holds every tunable of the engine. The zero value is not usable;
// start from DefaultConfig and override selectively. A Config is frozen
// once handed to NewEngine.
type Config struct {
	// Inclusion thresholds.
	MinCompositeScore float64 // verdict floor for the composite score
	MinContentLength  int     // minimum body word count
	PerThemeFloor     float64 // theme counts as matched when score exceeds this

	// Theme lexicon and weighting.
	ThemeLexicon map[Theme][]Keyword
	ThemeWeights map[Theme]float64

	// Length normalization: per-theme raw sums are divided by
	// max(1, words/LengthNormWords) and capped at ThemeScoreCap, so long
	// documents cannot outscore short ones on volume alone.
	LengthNormWords int
	ThemeScoreCap   float64

	// Narrative signal sets (transformative/impact/prescriptive). Their
	// multipliers compound multiplicatively when several sets match.
	Narrative []SignalSet

	// Insight quality phrase sets and multipliers. The levels are mutually
	// exclusive with precedence high > medium > low; quantitative markers
	// (percentages, dollar figures) also count toward high.
	HighValuePhrases   []string
	MediumValuePhrases []string
	LowValuePhrases    []string
	HighValueBonus     float64
	MediumValueBonus   float64
	LowValueBonus      float64

	// Source credibility: tier name -> source names, tier name -> bonus.
	SourceTiers    map[string][]string
	TierMultiplier map[string]float64

	// Enhanced patterns (case study, scalable process, policy shift,
	// thought leadership); each compounds multiplicatively when matched.
	Enhanced []SignalSet

	// Exclusion denylist: any word-boundary match is a hard veto and
	// subtracts ExclusionPenalty from the composite after multiplication.
	ExcludePhrases   []string
	ExclusionPenalty float64
}

// DefaultConfig returns the documented default weight table. The engine is
// fully usable with it; callers typically override only the thresholds.
func DefaultConfig() Config {
	return Config{
		MinCompositeScore: 50.0,
		MinContentLength:  20,
		PerThemeFloor:     0,

		ThemeLexicon: defaultLexicon(),
		ThemeWeights: map[Theme]float64{
			ThemeOpportunities: 1.2,
			ThemePractices:     1.0,
			ThemeSystemsCodes:  1.1,
			ThemeVision:        0.9,
		},

		LengthNormWords: 100,
		ThemeScoreCap:   100.0,

		Narrative: defaultNarrativeSignals(),

		HighValuePhrases:   defaultHighValuePhrases(),
		MediumValuePhrases: defaultMediumValuePhrases(),
		LowValuePhrases:    defaultLowValuePhrases(),
		HighValueBonus:     2.0,
		MediumValueBonus:   1.2,
		LowValueBonus:      0.7,

		SourceTiers: defaultSourceTiers(),
		TierMultiplier: map[string]float64{
			TierOne:      1.5,
			TierTwo:      1.3,
			TierThree:    1.2,
			TierResearch: 1.4,
			TierUnranked: 1.0,
		},

		Enhanced: defaultEnhancedPatterns(),

		ExcludePhrases:   defaultExcludePhrases(),
		ExclusionPenalty: 100.0,
	}
}

// Validate fails fast on a corrupt table. This is the engine's only error
// path: a bad lexicon would silently produce meaningless scores for every
// subsequent call, so refusing to start is the right behavior.
func (c Config) Validate() error {
	if c.MinCompositeScore < 0 {
		return fmt.Errorf("scoring config: MinCompositeScore must be >= 0, got %v", c.MinCompositeScore)
	}
	if c.MinContentLength < 0 {
		return fmt.Errorf("scoring config: MinContentLength must be >= 0, got %d", c.MinContentLength)
	}
	if c.LengthNormWords <= 0 {
		return fmt.Errorf("scoring config: LengthNormWords must be > 0, got %d", c.LengthNormWords)
	}
	if c.ThemeScoreCap <= 0 {
		return fmt.Errorf("scoring config: ThemeScoreCap must be > 0, got %v", c.ThemeScoreCap)
	}
	if c.ExclusionPenalty < 0 {
		return fmt.Errorf("scoring config: ExclusionPenalty must be >= 0, got %v", c.ExclusionPenalty)
	}

	if len(c.ThemeLexicon) == 0 {
		return fmt.Errorf("scoring config: theme lexicon is empty")
	}
	for _, theme := range Themes {
		kws, ok := c.ThemeLexicon[theme]
		if !ok || len(kws) == 0 {
			return fmt.Errorf("scoring config: no keywords for theme %q", theme)
		}
		for _, kw := range kws {
			if kw.Phrase == "" {
				return fmt.Errorf("scoring config: empty phrase in theme %q", theme)
			}
			if kw.Weight <= 0 {
				return fmt.Errorf("scoring config: keyword %q in theme %q has non-positive weight %v", kw.Phrase, theme, kw.Weight)
			}
		}
		w, ok := c.ThemeWeights[theme]
		if !ok {
			return fmt.Errorf("scoring config: missing weight for theme %q", theme)
		}
		if w <= 0 {
			return fmt.Errorf("scoring config: theme %q weight must be > 0, got %v", theme, w)
		}
	}

	for _, set := range append(append([]SignalSet{}, c.Narrative...), c.Enhanced...) {
		if set.Name == "" || len(set.Phrases) == 0 {
			return fmt.Errorf("scoring config: signal set %q is incomplete", set.Name)
		}
		if set.Multiplier <= 0 {
			return fmt.Errorf("scoring config: signal set %q has non-positive multiplier %v", set.Name, set.Multiplier)
		}
	}

	for _, b := range []float64{c.HighValueBonus, c.MediumValueBonus, c.LowValueBonus} {
		if b <= 0 {
			return fmt.Errorf("scoring config: insight quality bonuses must be > 0")
		}
	}

	for tier, m := range c.TierMultiplier {
		if m <= 0 {
			return fmt.Errorf("scoring config: tier %q multiplier must be > 0, got %v", tier, m)
		}
	}

	return nil
}
