package injection

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Type names the technique a flagged input appears to use.
type Type string

const (
	DirectOverride      Type = "direct_override"
	RoleHijack          Type = "role_hijack"
	Jailbreak           Type = "jailbreak"
	ContextManipulation Type = "context_manipulation"
	DataExfiltration    Type = "data_exfiltration"
)

// Verdict is the outcome of one detection pass.
type Verdict struct {
	IsInjection    bool    `json:"is_injection"`
	Type           Type    `json:"type,omitempty"`
	Confidence     float64 `json:"confidence"`
	MatchedPattern string  `json:"matched_pattern,omitempty"`
	Explanation    string  `json:"explanation,omitempty"`
}

// Config controls detector behaviour.
type Config struct {
	// Sensitivity is the minimum confidence a signature needs to fire,
	// in [0, 1]. Lower values flag more aggressively.
	Sensitivity float64 `yaml:"sensitivity"`
	// Heuristics enables the structural checks that run when no
	// signature matched.
	Heuristics bool `yaml:"heuristics"`
}

// DefaultConfig returns the standard detector settings.
func DefaultConfig() Config {
	return Config{Sensitivity: 0.7, Heuristics: true}
}

// Detector flags inputs that try to subvert the instructions an agent
// runs under. Detection is signature scan first, structural heuristics
// second. Safe for concurrent use.
type Detector struct {
	sensitivity float64
	heuristics  bool

	detections atomic.Int64
}

// NewDetector builds a detector from config. A zero sensitivity falls
// back to the default threshold.
func NewDetector(cfg Config) *Detector {
	s := cfg.Sensitivity
	if s == 0 {
		s = DefaultConfig().Sensitivity
	}
	return &Detector{sensitivity: s, heuristics: cfg.Heuristics}
}

// Detect scans content for injection signatures. Signatures are tried
// in table order and the first one that matches with confidence at or
// above the sensitivity wins. A clean pass reports confidence
// 1-sensitivity: the laxer the threshold, the less a pass means.
func (d *Detector) Detect(content string) Verdict {
	if strings.TrimSpace(content) == "" {
		return Verdict{Confidence: 1.0 - d.sensitivity}
	}

	for _, sig := range signatures {
		if sig.confidence < d.sensitivity {
			continue
		}
		if m := sig.re.FindString(content); m != "" {
			d.detections.Add(1)
			return Verdict{
				IsInjection:    true,
				Type:           sig.kind,
				Confidence:     sig.confidence,
				MatchedPattern: m,
				Explanation:    sig.explanation,
			}
		}
	}

	if d.heuristics {
		if v := d.checkHeuristics(content); v.IsInjection {
			d.detections.Add(1)
			return v
		}
	}

	return Verdict{Confidence: 1.0 - d.sensitivity}
}

// checkHeuristics catches structural signals no single signature
// covers: fence flooding and long instruction-dense walls of text.
func (d *Detector) checkHeuristics(content string) Verdict {
	fences := strings.Count(content, "```") + strings.Count(content, "'''")
	if fences > 2 {
		return Verdict{
			IsInjection:    true,
			Type:           ContextManipulation,
			Confidence:     0.70,
			MatchedPattern: fmt.Sprintf("%d code blocks", fences),
			Explanation:    "excessive code block markers",
		}
	}

	if len(content) > 2000 {
		words := len(instructionWordRe.FindAllString(content, -1))
		if words > 10 {
			return Verdict{
				IsInjection:    true,
				Type:           DirectOverride,
				Confidence:     0.65,
				MatchedPattern: fmt.Sprintf("%d instruction words", words),
				Explanation:    "long input with many instruction words",
			}
		}
	}

	return Verdict{}
}

// DetectionCount returns the number of inputs flagged so far.
func (d *Detector) DetectionCount() int64 {
	return d.detections.Load()
}
