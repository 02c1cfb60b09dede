package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

var (
	// ErrInvalidRequest is the parent of every validation failure. Callers
	// that only need to know "reject with 400" match on this.
	ErrInvalidRequest = errors.New("invalid source or format")
	ErrInvalidSource  = fmt.Errorf("%w: unsupported source", ErrInvalidRequest)
	ErrInvalidFormat  = fmt.Errorf("%w: unsupported format", ErrInvalidRequest)
)

// Request is the routing decision a caller asked for.
type Request struct {
	Source models.SourceName
	Format models.FormatName
}

// Validator defines the contract for request validation units.
type Validator interface {
	Validate(ctx context.Context, req Request) error
}

// Chain applies a list of validators and reports every failure.
type Chain struct {
	validators []Validator
}

// NewChain constructs a validator chain.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// NewDefaultChain checks requests against the built-in source and format
// allow-lists.
func NewDefaultChain() *Chain {
	return NewChain(
		NewSourceValidator(models.AllSources...),
		NewFormatValidator(models.AllFormats...),
	)
}

// Validate runs every validator. Failures are joined so that a request with
// both a bad source and a bad format logs both causes.
func (c *Chain) Validate(ctx context.Context, req Request) error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, v := range c.validators {
		if err := v.Validate(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
