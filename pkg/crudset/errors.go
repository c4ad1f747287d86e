package crudset

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by the engine. Structured variants below
// unwrap to these so callers can match with errors.Is.
var (
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrNotEditable           = errors.New("field is not editable")
	ErrTooMany               = errors.New("too many results")
	ErrPolicyViolation       = errors.New("policy may only narrow")
	ErrTableMismatch         = errors.New("table mismatch")
	ErrEmptyChain            = errors.New("chain must have at least one member")
	ErrUnsupportedRef        = errors.New("unsupported reference")
)

// MissingRequiredFieldsError reports required fields that are absent on
// create or present-but-null on any action.
type MissingRequiredFieldsError struct {
	Fields []string
}

func (e *MissingRequiredFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingRequiredFieldsError) Unwrap() error { return ErrMissingRequiredFields }

// NotEditableError reports write-payload fields outside a Policy's
// writeable set. Only the strict Policy path produces it; Writeset
// silently drops such fields instead.
type NotEditableError struct {
	Fields []string
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("fields are not editable: %s", strings.Join(e.Fields, ", "))
}

func (e *NotEditableError) Unwrap() error { return ErrNotEditable }
