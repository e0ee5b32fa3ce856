package docgen

import (
	"context"
	"errors"
	"strings"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines generation error kinds.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindParse             ErrorKind = "parse"
	KindMissingIdentifier ErrorKind = "missing_identifier"
	KindRecordNotFound    ErrorKind = "record_not_found"
	KindTemplateSyntax    ErrorKind = "template_syntax"
	KindRender            ErrorKind = "render"
	KindValidation        ErrorKind = "validation"
	KindTimeout           ErrorKind = "timeout"
	KindCanceled          ErrorKind = "canceled"
	KindInternal          ErrorKind = "internal"
)

// GenerateError wraps errors with a kind.
type GenerateError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *GenerateError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// NewError creates a new generation error.
func NewError(kind ErrorKind, msg string, err error) *GenerateError {
	return &GenerateError{Kind: kind, Msg: msg, Err: err}
}

// MissingIdentifierError reports that a document type needs a record
// identifier and none was supplied. Available lists the distinct identifier
// values present in the dataset, in dataset order, to guide the caller.
type MissingIdentifierError struct {
	Field     string
	Available []string
}

func (e *MissingIdentifierError) Error() string {
	if e.Field == "" {
		return "dataset has no identifier field to select records by"
	}
	if len(e.Available) == 0 {
		return "record identifier required; dataset has no " + e.Field + " values"
	}
	return "record identifier required; available " + e.Field + " values: " + strings.Join(e.Available, ", ")
}

// RecordNotFoundError reports that no record matched the requested
// identifier. Available lists the identifiers that do exist.
type RecordNotFoundError struct {
	Field      string
	Identifier string
	Available  []string
}

func (e *RecordNotFoundError) Error() string {
	msg := "no record with " + e.Field + " " + e.Identifier
	if len(e.Available) > 0 {
		msg += "; available: " + strings.Join(e.Available, ", ")
	}
	return msg
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	var genErr *GenerateError
	if errors.As(err, &genErr) && genErr.Msg != "" {
		msg = genErr.Msg
	}

	switch kind {
	case KindNotFound, KindRecordNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode(string(kind))
	case KindUnsupportedFormat, KindParse, KindMissingIdentifier, KindTemplateSyntax, KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode(string(kind))
	case KindRender, KindTimeout, KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode(string(kind))
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its generation error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var genErr *GenerateError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}

	var missingID *MissingIdentifierError
	if errors.As(err, &missingID) {
		return KindMissingIdentifier
	}

	var notFound *RecordNotFoundError
	if errors.As(err, &notFound) {
		return KindRecordNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}
