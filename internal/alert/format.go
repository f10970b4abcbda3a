package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("agentguard: %s", event.Decision),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Subject:* %s", event.SubjectID)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Category:* %s", event.Category)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Risk:* %s", event.RiskLevel)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "info"
	switch event.RiskLevel {
	case "blocked", "critical":
		severity = "critical"
	case "high":
		severity = "error"
	case "medium":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("agentguard %s: %s", event.Decision, event.SubjectID),
			"severity": severity,
			"source":   "agentguard",
			"custom_details": map[string]any{
				"subject_id": event.SubjectID,
				"category":   event.Category,
				"risk_level": event.RiskLevel,
				"reason":     event.Reason,
				"request_id": event.RequestID,
			},
		},
	}
	return json.Marshal(payload)
}
