package normalizer

import "github.com/telhawk-systems/hookrelay/internal/models"

// ParsePassthrough copies the top level of the payload into the record.
func ParsePassthrough(raw models.RawPayload) models.Record {
	return models.Record(raw.Clone())
}
