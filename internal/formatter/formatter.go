// Package formatter renders canonical records for destination channels.
//
// Formatters are pure: the same record always produces the same payload and
// no formatter performs I/O. Records carry no global schema, so every
// formatter supplies a default for each key it reads.
package formatter

import (
	"fmt"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// Formatter renders a canonical record for one destination.
type Formatter interface {
	Format(record models.Record) models.FormattedPayload
}

// FormatterFunc adapts a plain function to the Formatter interface.
type FormatterFunc func(record models.Record) models.FormattedPayload

// Format calls f(record).
func (f FormatterFunc) Format(record models.Record) models.FormattedPayload {
	return f(record)
}

// Entry binds a format name to its formatter.
type Entry struct {
	Format    models.FormatName
	Formatter Formatter
}

// Registry maps format names to formatters. It is immutable once built.
type Registry struct {
	items map[models.FormatName]Formatter
	order []models.FormatName
}

// NewRegistry constructs a registry from the given entries.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{items: make(map[models.FormatName]Formatter, len(entries))}
	for _, e := range entries {
		if e.Formatter == nil {
			return nil, fmt.Errorf("nil formatter for format %q", e.Format)
		}
		if _, exists := r.items[e.Format]; exists {
			return nil, fmt.Errorf("duplicate formatter for format %q", e.Format)
		}
		r.items[e.Format] = e.Formatter
		r.order = append(r.order, e.Format)
	}
	return r, nil
}

// Default returns the registry of built-in formatters, one per entry in
// models.AllFormats.
func Default() *Registry {
	r, err := NewRegistry(
		Entry{models.FormatDefault, FormatterFunc(FormatPassthrough)},
		Entry{models.FormatSlack, FormatterFunc(FormatSlack)},
		Entry{models.FormatDiscord, FormatterFunc(FormatDiscord)},
		Entry{models.FormatMSTeams, FormatterFunc(FormatMSTeams)},
		Entry{models.FormatEmail, FormatterFunc(FormatEmail)},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the formatter registered for format.
func (r *Registry) Resolve(format models.FormatName) (Formatter, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.items[format]
	return f, ok
}

// Formats lists registered format names in registration order.
func (r *Registry) Formats() []models.FormatName {
	if r == nil {
		return nil
	}
	out := make([]models.FormatName, len(r.order))
	copy(out, r.order)
	return out
}
