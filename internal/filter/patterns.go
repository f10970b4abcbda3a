package filter

import "regexp"

// Category names reported in filter results.
const (
	CategoryBlocklist = "blocklist"
	CategoryViolence  = "violence"
	CategoryHate      = "hate_speech"
	CategoryIllegal   = "illegal_activity"
	CategoryPII       = "pii_detected"
	CategoryInjection = "prompt_injection"
)

// categoryRule binds one harm category to its pattern list and the
// severity it carries when any pattern matches.
type categoryRule struct {
	name     string
	level    Level
	patterns []*regexp.Regexp
}

// builtinRules is the ordered category table. Scan order is fixed;
// the result level is the maximum across matched categories, so order
// only affects the order of reported category names.
var builtinRules = []categoryRule{
	{
		name:  CategoryViolence,
		level: BlockHard,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(kill|murder|assassinate|bomb|explode|attack)\b.*\b(people|person|someone|them)\b`),
			regexp.MustCompile(`(?i)\bhow\s+to\s+(make|build|create)\s+(a\s+)?(bomb|weapon|explosive)\b`),
			regexp.MustCompile(`(?i)\b(hurt|harm|injure)\s+(myself|yourself|themselves)\b`),
		},
	},
	{
		name:  CategoryHate,
		level: BlockHard,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hate|kill|destroy)\s+all\s+\w+\b`),
			regexp.MustCompile(`(?i)\b(racial|ethnic)\s+slurs?\b`),
		},
	},
	{
		name:  CategoryIllegal,
		level: BlockSoft,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bhow\s+to\s+(hack|crack|break\s+into)\b`),
			regexp.MustCompile(`(?i)\b(steal|fraud|scam)\s+(money|credit|identity)\b`),
			regexp.MustCompile(`(?i)\b(buy|sell|make)\s+(drugs|meth|cocaine|heroin)\b`),
		},
	},
	{
		name:  CategoryPII,
		level: Warn,
		patterns: []*regexp.Regexp{
			ssnRe,
			cardRe,
			emailRe,
		},
	},
	{
		name:  CategoryInjection,
		level: BlockHard,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
			regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)`),
			regexp.MustCompile(`(?i)you\s+are\s+now\s+[a-z]+\s+(mode|persona)`),
			regexp.MustCompile(`(?i)forget\s+(everything|all|your\s+instructions)`),
			regexp.MustCompile(`(?i)new\s+instructions?:\s*`),
			regexp.MustCompile(`(?i)system\s*:\s*you\s+are`),
			regexp.MustCompile(`(?i)\[system\]|\[assistant\]|\[user\]`),
		},
	},
}

// PII patterns shared between detection and redaction.
var (
	ssnRe   = regexp.MustCompile(`\b\d{3}[-.]?\d{2}[-.]?\d{4}\b`)
	cardRe  = regexp.MustCompile(`\b\d{16}\b`)
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
)
