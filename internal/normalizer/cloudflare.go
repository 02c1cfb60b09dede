package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

const (
	cloudflareLiveInputDisconnected = "live_input.disconnected"
	cloudflarePagesEventAlert       = "pages_event_alert"
)

// ParseCloudflare reads a notification webhook. Stream live input and Pages
// alerts carry extra fields; any other data shape adds nothing.
func ParseCloudflare(raw models.RawPayload) models.Record {
	record := models.Record{
		"name":      raw["name"],
		"text":      raw["text"],
		"timestamp": raw["ts"],
	}

	data, ok := asMap(raw["data"])
	if !ok {
		return record
	}

	switch {
	case data["event_type"] == cloudflareLiveInputDisconnected:
		record["event_type"] = data["event_type"]
		record["input_id"] = data["input_id"]
	case data["alert_name"] == cloudflarePagesEventAlert:
		record["event"] = data["event"]
		record["project_name"] = data["project_name"]
		record["commit_hash"] = data["commit_hash"]
	}

	return record
}
