package app

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation is matched by every *SchemaError.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaError reports a torrent descriptor field that is missing or has the
// wrong shape. Field uses dotted paths such as "info.piece length".
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: field %q: %s", ErrSchemaViolation, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

func schemaErrorf(field, format string, args ...any) error {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
