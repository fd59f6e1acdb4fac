package services

import "strings"

// Field names accepted by FieldTransforms.
const (
	FieldTitle       = "title"
	FieldVenue       = "venue"
	FieldDescription = "description"
	FieldReport      = "report"
)

// Transform is a pure string transform applied to one field before save.
type Transform func(string) string

// FieldTransforms is an explicit, ordered registry of per-field transforms.
// Steps run in registration order. Registration happens at wiring time; there
// is no implicit global table.
type FieldTransforms struct {
	steps map[string][]Transform
}

// NewFieldTransforms returns an empty registry.
func NewFieldTransforms() *FieldTransforms {
	return &FieldTransforms{steps: make(map[string][]Transform)}
}

// DefaultFieldTransforms returns the registry used by the standard wiring:
// whitespace trimming on every free-text field.
func DefaultFieldTransforms() *FieldTransforms {
	ft := NewFieldTransforms()
	for _, field := range []string{FieldTitle, FieldVenue, FieldDescription, FieldReport} {
		ft.Register(field, strings.TrimSpace)
	}
	return ft
}

// Register appends a transform step for the given field.
func (f *FieldTransforms) Register(field string, fn Transform) {
	f.steps[field] = append(f.steps[field], fn)
}

// Apply runs the field's registered steps over the value, in order.
func (f *FieldTransforms) Apply(field, value string) string {
	for _, fn := range f.steps[field] {
		value = fn(value)
	}
	return value
}
