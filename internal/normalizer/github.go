package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParseGitHub reads a push event.
func ParseGitHub(raw models.RawPayload) models.Record {
	commits := 0
	if list, ok := asList(raw["commits"]); ok {
		commits = len(list)
	}
	return models.Record{
		"repository": get(raw, "repository", "full_name"),
		"pusher":     get(raw, "pusher", "name"),
		"commits":    commits,
	}
}
