package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplayFilter selects which entries to include in a subject replay.
type ReplayFilter struct {
	SubjectID string
	From      time.Time // zero value = no lower bound
	To        time.Time // zero value = no upper bound
}

// ReplaySummary holds decision counts and metadata for a replayed
// subject history.
type ReplaySummary struct {
	Total          int            `json:"total"`
	AllowCount     int            `json:"allow_count"`
	WarnCount      int            `json:"warn_count"`
	DenyCount      int            `json:"deny_count"`
	Categories     map[string]int `json:"categories,omitempty"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
	MaxRiskLevel   string         `json:"max_risk_level"`
}

// ReplayResult holds filtered entries and summary for one subject.
type ReplayResult struct {
	SubjectID string        `json:"subject_id"`
	Entries   []Entry       `json:"entries"`
	Summary   ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns the entries matching the
// filter, oldest first, with aggregate counts.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		SubjectID: filter.SubjectID,
		Summary:   ReplaySummary{Categories: make(map[string]int)},
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if entry.SubjectID != filter.SubjectID {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

// riskRank orders the risk level names carried in entries.
var riskRank = map[string]int{
	"low":      0,
	"medium":   1,
	"high":     2,
	"critical": 3,
	"blocked":  4,
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	switch entry.Decision {
	case DecisionAllow:
		s.AllowCount++
	case DecisionWarn:
		s.WarnCount++
	case DecisionDeny:
		s.DenyCount++
	}

	if entry.Category != "" {
		s.Categories[entry.Category]++
	}

	if riskRank[entry.RiskLevel] >= riskRank[s.MaxRiskLevel] && entry.RiskLevel != "" {
		s.MaxRiskLevel = entry.RiskLevel
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
