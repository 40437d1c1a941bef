package features

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/gigrec/internal/domain/model"
)

// ErrValidation is wrapped by every registration rejected for bad input.
var ErrValidation = errors.New("invalid features")

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// ValidationError lists every field of a registration that failed validation.
type ValidationError struct {
	Kind   model.ItemKind
	ID     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Param != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", f.Field, f.Tag, f.Param))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Field, f.Tag))
	}
	return fmt.Sprintf("%s %q: %s: %s", e.Kind, e.ID, ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }
