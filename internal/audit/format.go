package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Subject: %s | No entries found.\n", result.SubjectID)
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("Subject: %s | %s–%s UTC\n", result.SubjectID, first, last))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		decision := strings.ToUpper(e.Decision)
		category := truncate(e.Category, 20)
		reason := truncate(e.Reason, 36)

		b.WriteString(fmt.Sprintf("%-10s %-8s %-6s %-20s %-36s\n",
			ts, e.RiskLevel, decision, category, reason))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{}
	if s.AllowCount > 0 {
		parts = append(parts, fmt.Sprintf("%d allow", s.AllowCount))
	}
	if s.WarnCount > 0 {
		parts = append(parts, fmt.Sprintf("%d warn", s.WarnCount))
	}
	if s.DenyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d deny", s.DenyCount))
	}

	categories := make([]string, 0, len(s.Categories))
	for c := range s.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	line := fmt.Sprintf("Summary: %s | Max risk: %s\n",
		strings.Join(parts, ", "), s.MaxRiskLevel)
	if len(categories) > 0 {
		line += fmt.Sprintf("Categories: %s\n", strings.Join(categories, ", "))
	}
	return line
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
