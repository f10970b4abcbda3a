package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// Config toggles individual harm categories and supplies caller-defined
// matching rules. The zero value disables everything; use DefaultConfig
// for the standard set.
type Config struct {
	Violence  bool `yaml:"violence"`
	Hate      bool `yaml:"hate"`
	Illegal   bool `yaml:"illegal"`
	PII       bool `yaml:"pii"`
	Injection bool `yaml:"injection"`

	// Blocklist terms are matched exactly (case-insensitive substring)
	// and always yield BlockHard.
	Blocklist []string `yaml:"blocklist"`

	// CustomPatterns maps a caller category name to extra regexes.
	// Matches raise Allow to Warn but never lower an existing level.
	CustomPatterns map[string][]string `yaml:"custom_patterns"`
}

// DefaultConfig enables all built-in categories.
func DefaultConfig() Config {
	return Config{
		Violence:  true,
		Hate:      true,
		Illegal:   true,
		PII:       true,
		Injection: true,
	}
}

// Result is the outcome of one inspection.
type Result struct {
	Level           Level    `json:"level"`
	Categories      []string `json:"categories,omitempty"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
	Confidence      float64  `json:"confidence"`
	Message         string   `json:"message,omitempty"`
}

// Blocked reports whether the content should be blocked.
func (r Result) Blocked() bool {
	return r.Level == BlockSoft || r.Level == BlockHard
}

// HardBlocked reports whether the block is non-overridable.
func (r Result) HardBlocked() bool {
	return r.Level == BlockHard
}

// Stats is a point-in-time snapshot of filter counters.
type Stats struct {
	Checked int64 `json:"checked"`
	Allowed int64 `json:"allowed"`
	Warned  int64 `json:"warned"`
	Blocked int64 `json:"blocked"`
}

// Filter classifies text into harm categories with a severity level.
// Classification is pure pattern matching; the only mutable state is
// the observability counters, so a single Filter is safe for
// concurrent use.
type Filter struct {
	cfg       Config
	blocklist []string
	custom    []customRule

	checked atomic.Int64
	allowed atomic.Int64
	warned  atomic.Int64
	blocked atomic.Int64
}

type customRule struct {
	category string
	patterns []*regexp.Regexp
}

// New compiles a Filter from config. Invalid custom patterns fail here,
// never at check time.
func New(cfg Config) (*Filter, error) {
	f := &Filter{cfg: cfg}
	for _, term := range cfg.Blocklist {
		f.blocklist = append(f.blocklist, strings.ToLower(term))
	}
	for category, exprs := range cfg.CustomPatterns {
		cr := customRule{category: category}
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("filter: custom pattern %q for category %q: %w", expr, category, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		f.custom = append(f.custom, cr)
	}
	return f, nil
}

// Check inspects content against the blocklist and all enabled
// categories. One reported match per category bounds the output size.
func (f *Filter) Check(content string) Result {
	f.checked.Add(1)

	if strings.TrimSpace(content) == "" {
		f.allowed.Add(1)
		return Result{Level: Allow, Confidence: 1.0}
	}

	var categories, matched []string
	highest := Allow

	lower := strings.ToLower(content)
	for _, term := range f.blocklist {
		if strings.Contains(lower, term) {
			categories = append(categories, CategoryBlocklist)
			matched = append(matched, term)
			highest = BlockHard
		}
	}

	for _, rule := range builtinRules {
		if !f.enabled(rule.name) {
			continue
		}
		for _, re := range rule.patterns {
			if m := re.FindString(content); m != "" {
				categories = append(categories, rule.name)
				matched = append(matched, m)
				if rule.level > highest {
					highest = rule.level
				}
				break
			}
		}
	}

	for _, cr := range f.custom {
		for _, re := range cr.patterns {
			if m := re.FindString(content); m != "" {
				categories = append(categories, "custom:"+cr.category)
				matched = append(matched, m)
				if highest < Warn {
					highest = Warn
				}
				break
			}
		}
	}

	result := Result{
		Level:           highest,
		Categories:      categories,
		MatchedPatterns: matched,
		Confidence:      1.0,
	}
	if len(categories) > 0 {
		// Rule matches carry less certainty than a clean pass.
		result.Confidence = 0.85
	}

	switch highest {
	case BlockHard:
		result.Message = "content blocked (hard): " + strings.Join(categories, ", ")
		f.blocked.Add(1)
	case BlockSoft:
		result.Message = "content blocked (soft): " + strings.Join(categories, ", ")
		f.blocked.Add(1)
	case Warn:
		result.Message = "content warning: " + strings.Join(categories, ", ")
		f.warned.Add(1)
	default:
		f.allowed.Add(1)
	}

	return result
}

func (f *Filter) enabled(category string) bool {
	switch category {
	case CategoryViolence:
		return f.cfg.Violence
	case CategoryHate:
		return f.cfg.Hate
	case CategoryIllegal:
		return f.cfg.Illegal
	case CategoryPII:
		return f.cfg.PII
	case CategoryInjection:
		return f.cfg.Injection
	default:
		return false
	}
}

// Stats returns the counters without mutating state.
func (f *Filter) Stats() Stats {
	return Stats{
		Checked: f.checked.Load(),
		Allowed: f.allowed.Load(),
		Warned:  f.warned.Load(),
		Blocked: f.blocked.Load(),
	}
}
