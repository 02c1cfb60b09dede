package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParseWebflow reads a form submission. all_fields carries the submitted
// form data untouched so formatters can pick up fields added later.
func ParseWebflow(raw models.RawPayload) models.Record {
	form, ok := asMap(raw["data"])
	if !ok {
		form = map[string]interface{}{}
	}
	return models.Record{
		"form_id":       raw["formId"],
		"submission_id": raw["submissionId"],
		"triggered_by":  raw["triggeredBy"],
		"email":         form["email"],
		"name":          form["name"],
		"all_fields":    form,
	}
}
