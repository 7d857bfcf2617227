package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type compiledKeyword struct {
	re     *regexp.Regexp
	weight float64
}

type compiledSet struct {
	name       string
	patterns   []*regexp.Regexp
	multiplier float64
}

type tierEntry struct {
	name       string
	sources    []string
	multiplier float64
}

// Engine scores articles against a frozen configuration. Build it once at
// startup and share it freely: Score performs no I/O and mutates nothing.
type Engine struct {
	cfg Config

	themes    map[Theme][]compiledKeyword
	narrative []compiledSet
	enhanced  []compiledSet
	high      []*regexp.Regexp
	medium    []*regexp.Regexp
	low       []*regexp.Regexp
	exclude   []*regexp.Regexp
	tiers     []tierEntry
}

// NewEngine validates cfg and precompiles every phrase pattern. This is the
// only place the scorer can fail; afterwards Score is total.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, themes: make(map[Theme][]compiledKeyword, len(Themes))}

	for _, theme := range Themes {
		for _, kw := range cfg.ThemeLexicon[theme] {
			re, err := phrasePattern(kw.Phrase)
			if err != nil {
				return nil, fmt.Errorf("theme %q keyword %q: %w", theme, kw.Phrase, err)
			}
			e.themes[theme] = append(e.themes[theme], compiledKeyword{re: re, weight: kw.Weight})
		}
	}

	var err error
	if e.narrative, err = compileSets(cfg.Narrative); err != nil {
		return nil, err
	}
	if e.enhanced, err = compileSets(cfg.Enhanced); err != nil {
		return nil, err
	}
	if e.high, err = compilePhrases(cfg.HighValuePhrases); err != nil {
		return nil, err
	}
	if e.medium, err = compilePhrases(cfg.MediumValuePhrases); err != nil {
		return nil, err
	}
	if e.low, err = compilePhrases(cfg.LowValuePhrases); err != nil {
		return nil, err
	}
	if e.exclude, err = compilePhrases(cfg.ExcludePhrases); err != nil {
		return nil, err
	}

	// Fixed lookup order so a source listed in several tiers resolves
	// deterministically.
	for _, tier := range []string{TierOne, TierTwo, TierThree, TierResearch} {
		names := cfg.SourceTiers[tier]
		if len(names) == 0 {
			continue
		}
		normalized := make([]string, 0, len(names))
		for _, n := range names {
			normalized = append(normalized, normalizeSource(n))
		}
		e.tiers = append(e.tiers, tierEntry{
			name:       tier,
			sources:    normalized,
			multiplier: cfg.TierMultiplier[tier],
		})
	}

	return e, nil
}

func compileSets(sets []SignalSet) ([]compiledSet, error) {
	out := make([]compiledSet, 0, len(sets))
	for _, set := range sets {
		patterns, err := compilePhrases(set.Phrases)
		if err != nil {
			return nil, fmt.Errorf("signal set %q: %w", set.Name, err)
		}
		out = append(out, compiledSet{name: set.Name, patterns: patterns, multiplier: set.Multiplier})
	}
	return out, nil
}

func compilePhrases(phrases []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		re, err := phrasePattern(p)
		if err != nil {
			return nil, fmt.Errorf("phrase %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Score computes the composite relevance of one article. It never fails:
// malformed or empty input degrades to a zero-score, excluded result.
//
// The title is counted twice, reflecting that headline keywords are a much
// stronger relevance hint than body mentions.
func (e *Engine) Score(in Input) Result {
	title := normalizeText(in.Title)
	body := normalizeText(in.Body)
	text := strings.TrimSpace(title + " " + title + " " + body)

	res := Result{
		ThemeScores:      make(map[Theme]float64, len(Themes)),
		NarrativeBonus:   1.0,
		InsightBonus:     1.0,
		CredibilityBonus: 1.0,
		EnhancedBonus:    1.0,
		QualityLevel:     QualityNeutral,
		SourceTier:       TierUnranked,
		WordCount:        wordCount(body),
	}
	for _, theme := range Themes {
		res.ThemeScores[theme] = 0
	}

	// Theme scores: keyword occurrences x weight, normalized by length so
	// density wins over volume, then theme-weighted and capped.
	lengthNorm := float64(wordCount(text)) / float64(e.cfg.LengthNormWords)
	if lengthNorm < 1 {
		lengthNorm = 1
	}
	for _, theme := range Themes {
		raw := 0.0
		for _, kw := range e.themes[theme] {
			if n := countMatches(kw.re, text); n > 0 {
				raw += float64(n) * kw.weight
			}
		}
		score := raw / lengthNorm * e.cfg.ThemeWeights[theme]
		if score > e.cfg.ThemeScoreCap {
			score = e.cfg.ThemeScoreCap
		}
		res.ThemeScores[theme] = score
		if score > e.cfg.PerThemeFloor {
			res.MatchedThemes = append(res.MatchedThemes, theme)
		}
	}
	res.PrimaryTheme = primaryTheme(res.ThemeScores)

	combined := 0.0
	for _, s := range res.ThemeScores {
		combined += s
	}

	// Narrative sets compound multiplicatively: a piece showing both
	// transformation and hard numbers is worth more than either alone.
	for _, set := range e.narrative {
		if anyMatch(set.patterns, text) {
			res.NarrativeBonus *= set.multiplier
		}
	}

	res.QualityLevel, res.InsightBonus = e.insightQuality(text)
	res.SourceTier, res.CredibilityBonus = e.sourceTier(in.Source)

	for _, set := range e.enhanced {
		if anyMatch(set.patterns, text) {
			res.EnhancedBonus *= set.multiplier
		}
	}

	total := combined * res.NarrativeBonus * res.InsightBonus * res.CredibilityBonus * res.EnhancedBonus

	// Exclusion is a hard veto, not a soft penalty: false positives in the
	// denylist are far rarer than false negatives in keyword scoring.
	if anyMatch(e.exclude, text) {
		res.Excluded = true
		total -= e.cfg.ExclusionPenalty
	}
	if total < 0 {
		total = 0
	}
	res.TotalScore = total

	res.Include = !res.Excluded &&
		total >= e.cfg.MinCompositeScore &&
		res.WordCount >= e.cfg.MinContentLength

	return res
}

// Config returns a copy of the engine's configuration (for diagnostics).
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) insightQuality(text string) (string, float64) {
	switch {
	case anyMatch(e.high, text) || hasQuantitativeMarker(text):
		return QualityHigh, e.cfg.HighValueBonus
	case anyMatch(e.medium, text):
		return QualityMedium, e.cfg.MediumValueBonus
	case anyMatch(e.low, text):
		return QualityLow, e.cfg.LowValueBonus
	default:
		return QualityNeutral, 1.0
	}
}

func (e *Engine) sourceTier(source string) (string, float64) {
	norm := normalizeSource(source)
	if norm == "" {
		return TierUnranked, 1.0
	}
	for _, tier := range e.tiers {
		for _, name := range tier.sources {
			if strings.Contains(norm, name) {
				return tier.name, tier.multiplier
			}
		}
	}
	return TierUnranked, 1.0
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func primaryTheme(scores map[Theme]float64) Theme {
	best := Theme("")
	bestScore := 0.0
	for _, theme := range Themes {
		if scores[theme] > bestScore {
			best = theme
			bestScore = scores[theme]
		}
	}
	return best
}

// SortThemes returns themes in canonical order; used when persisting
// matched-theme sets so output is deterministic.
func SortThemes(themes []Theme) []Theme {
	order := make(map[Theme]int, len(Themes))
	for i, t := range Themes {
		order[t] = i
	}
	out := append([]Theme(nil), themes...)
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}
