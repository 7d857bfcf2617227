package scoring

// Default weight tables. Multi-word phrases carry weight 10, single words 5:
// phrases signal intent far more reliably than isolated words, so they are
// weighted at 2x by convention. All matching is case-insensitive and
// word-boundary based.

const (
	phraseWeight = 10.0
	wordWeight   = 5.0
)

func phrases(ps ...string) []Keyword {
	out := make([]Keyword, 0, len(ps))
	for _, p := range ps {
		out = append(out, Keyword{Phrase: p, Weight: phraseWeight})
	}
	return out
}

func words(ws ...string) []Keyword {
	out := make([]Keyword, 0, len(ws))
	for _, w := range ws {
		out = append(out, Keyword{Phrase: w, Weight: wordWeight})
	}
	return out
}

func defaultLexicon() map[Theme][]Keyword {
	return map[Theme][]Keyword{
		ThemeOpportunities: append(phrases(
			"scaled up",
			"growth story",
			"rapid growth",
			"portfolio growth",
			"creative financing",
			"innovative deal",
			"joint venture",
			"value add",
			"return on investment",
			"wealth creation",
			"asset appreciation",
			"equity growth",
			"success story",
			"project spotlight",
			"opportunity zone",
			"construction loan",
			"development financing",
		), words(
			"roi",
			"portfolio",
			"acquisition",
			"recapitalization",
			"investment",
		)...),

		ThemePractices: append(phrases(
			"modular construction",
			"offsite construction",
			"volumetric construction",
			"mass timber",
			"cross laminated timber",
			"design-build",
			"integrated project delivery",
			"lean construction",
			"biophilic design",
			"human-centered design",
			"resilient design",
			"workflow optimization",
			"process efficiency",
			"productivity gains",
			"digital transformation",
			"best practices",
			"lessons learned",
			"digital twin",
			"3d printing",
		), words(
			"prefab",
			"prefabricated",
			"clt",
			"modular",
			"automation",
			"bim",
			"robotics",
		)...),

		ThemeSystemsCodes: append(phrases(
			"policy change",
			"regulatory update",
			"new legislation",
			"incentive program",
			"tax credit",
			"building code",
			"building codes",
			"zoning reform",
			"land use",
			"density bonus",
			"affordable housing mandate",
			"permitting process",
			"infrastructure bill",
			"transit-oriented development",
			"grid modernization",
			"regulatory unlock",
		), words(
			"upzoning",
			"rezoning",
			"zoning",
			"entitlements",
			"permitting",
		)...),

		ThemeVision: append(phrases(
			"smart city",
			"smart cities",
			"urban innovation",
			"future cities",
			"connected communities",
			"future of living",
			"co-living",
			"micro-apartments",
			"adaptive reuse",
			"community development",
			"social impact",
			"equitable development",
			"wellness architecture",
			"vertical communities",
			"net zero",
			"passive house",
		), words(
			"placemaking",
			"sustainability",
			"livability",
			"decarbonization",
		)...),
	}
}

func defaultNarrativeSignals() []SignalSet {
	return []SignalSet{
		{
			Name:       "transformative",
			Multiplier: 1.4,
			Phrases: []string{
				"grew from", "scaled up", "turned into", "transformed",
				"evolved into", "pivoted to", "shifted to", "expanded from",
			},
		},
		{
			Name:       "impact",
			Multiplier: 1.5,
			Phrases: []string{
				"return on investment", "roi", "boosted productivity",
				"led to growth", "increased efficiency", "reduced costs by",
				"improved margins", "performance data", "metrics show",
			},
		},
		{
			Name:       "prescriptive",
			Multiplier: 1.3,
			Phrases: []string{
				"lessons learned", "framework", "how-to guide", "how to",
				"roadmap", "strategy for", "methodology", "best practices",
				"actionable advice",
			},
		},
	}
}

func defaultHighValuePhrases() []string {
	return []string{
		"roi", "return on investment", "performance data", "metrics",
		"kpi", "benchmark", "methodology", "framework", "case study",
		"implementation guide", "cost savings",
	}
}

func defaultMediumValuePhrases() []string {
	return []string{
		"visionary", "future of", "concept", "potential", "outlook",
		"trends", "forecast",
	}
}

func defaultLowValuePhrases() []string {
	return []string{
		"hype", "press release", "announcement", "grand opening", "award",
		"celebration", "game-changer", "game changer", "breakthrough",
	}
}

func defaultEnhancedPatterns() []SignalSet {
	return []SignalSet{
		{
			Name:       "case_study",
			Multiplier: 1.6,
			Phrases: []string{
				"case study", "success story", "before and after",
				"project spotlight",
			},
		},
		{
			Name:       "scalable_process",
			Multiplier: 1.5,
			Phrases: []string{
				"methodology", "repeatable process", "scalable model",
				"standardized process", "workflow optimization", "systematized",
			},
		},
		{
			Name:       "policy_shift",
			Multiplier: 1.4,
			Phrases: []string{
				"policy change", "zoning reform", "building code",
				"regulatory update", "upzoning", "incentive program",
			},
		},
		{
			Name:       "thought_leadership",
			Multiplier: 1.3,
			Phrases: []string{
				"thought leadership", "white paper", "market outlook",
				"expert opinion", "industry survey", "quarterly report",
			},
		},
	}
}

func defaultSourceTiers() map[string][]string {
	return map[string][]string{
		TierOne: {
			"jll", "cbre", "cushman", "colliers", "newmark",
			"avison young", "marcus & millichap",
		},
		TierTwo: {
			"bisnow", "commercial observer", "costar", "globest",
			"real estate weekly", "rejournals",
		},
		TierThree: {
			"construction dive", "smart cities dive",
			"engineering news record", "enr", "architectural record",
		},
		TierResearch: {
			"mckinsey", "deloitte", "pwc", "kpmg", "bain",
			"boston consulting", "oliver wyman",
		},
	}
}

func defaultExcludePhrases() []string {
	return []string{
		// furniture and interiors
		"furniture", "chair", "table", "desk", "sofa", "couch", "lamp",
		"lighting fixture", "interior design", "decor", "decoration",
		// art world
		"art gallery", "art installation", "sculpture", "painting",
		"exhibition", "museum",
		// fashion
		"fashion", "clothing", "textile", "wallpaper", "paint color",
		// academic theory without practical application
		"experimental architecture", "avant-garde", "student project",
		"research paper", "thesis", "dissertation",
	}
}
