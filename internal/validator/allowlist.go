package validator

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// SourceValidator accepts only sources on its allow-list.
type SourceValidator struct {
	allowed map[models.SourceName]struct{}
}

// NewSourceValidator builds a validator for the given sources.
func NewSourceValidator(sources ...models.SourceName) *SourceValidator {
	allowed := make(map[models.SourceName]struct{}, len(sources))
	for _, s := range sources {
		allowed[s] = struct{}{}
	}
	return &SourceValidator{allowed: allowed}
}

// Validate rejects sources that are not on the allow-list.
func (v *SourceValidator) Validate(ctx context.Context, req Request) error {
	_ = ctx
	if _, ok := v.allowed[req.Source]; !ok {
		return fmt.Errorf("%w %q", ErrInvalidSource, req.Source)
	}
	return nil
}

// FormatValidator accepts only formats on its allow-list.
type FormatValidator struct {
	allowed map[models.FormatName]struct{}
}

// NewFormatValidator builds a validator for the given formats.
func NewFormatValidator(formats ...models.FormatName) *FormatValidator {
	allowed := make(map[models.FormatName]struct{}, len(formats))
	for _, f := range formats {
		allowed[f] = struct{}{}
	}
	return &FormatValidator{allowed: allowed}
}

// Validate rejects formats that are not on the allow-list.
func (v *FormatValidator) Validate(ctx context.Context, req Request) error {
	_ = ctx
	if _, ok := v.allowed[req.Format]; !ok {
		return fmt.Errorf("%w %q", ErrInvalidFormat, req.Format)
	}
	return nil
}
