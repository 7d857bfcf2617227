// Package scoring implements the heuristic relevance engine for
// construction and real-estate content. It classifies plain-text articles
// into four fixed themes, detects narrative and quality signals, applies
// source-credibility and enhanced-pattern multipliers, and produces a
// single composite score with an include/exclude verdict.
//
// The engine is a pure function of its input and a frozen configuration:
// no I/O, no shared mutable state, safe for concurrent use.
package scoring

import "time"

// Theme is one of the four fixed content categories.
type Theme string

const (
	ThemeOpportunities Theme = "opportunities"
	ThemePractices     Theme = "practices"
	ThemeSystemsCodes  Theme = "systems_codes"
	ThemeVision        Theme = "vision"
)

// Themes lists all themes in canonical order.
var Themes = []Theme{ThemeOpportunities, ThemePractices, ThemeSystemsCodes, ThemeVision}

// Source credibility tiers.
const (
	TierOne      = "tier1"
	TierTwo      = "tier2"
	TierThree    = "tier3"
	TierResearch = "research"
	TierUnranked = "unranked"
)

// Insight quality levels.
const (
	QualityHigh    = "high"
	QualityMedium  = "medium"
	QualityLow     = "low"
	QualityNeutral = "neutral"
)

// Input is one article to score. All fields are plain decoded text;
// HTML/PDF/transcript extraction happens upstream.
type Input struct {
	Title       string
	Body        string
	Source      string
	URL         string
	PublishedAt time.Time
}

// Result is the scoring outcome. The field names and types are stable:
// they are persisted as-is and consumed by the API read path.
type Result struct {
	ThemeScores   map[Theme]float64 `json:"theme_scores"`
	MatchedThemes []Theme           `json:"matched_themes"`
	PrimaryTheme  Theme             `json:"primary_theme,omitempty"`

	NarrativeBonus   float64 `json:"narrative_bonus"`
	InsightBonus     float64 `json:"insight_bonus"`
	CredibilityBonus float64 `json:"credibility_bonus"`
	EnhancedBonus    float64 `json:"enhanced_bonus"`

	QualityLevel string `json:"quality_level"`
	SourceTier   string `json:"source_tier"`
	WordCount    int    `json:"word_count"`

	TotalScore float64 `json:"total_score"`
	Excluded   bool    `json:"excluded"`
	Include    bool    `json:"include"`
}
