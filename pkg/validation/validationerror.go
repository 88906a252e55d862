package validation

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
)

type ValidationErrorCode string

const (
	MissingField      = ValidationErrorCode("MissingField")
	InvalidField      = ValidationErrorCode("InvalidField")
	Empty             = ValidationErrorCode("Empty")
	EmptyPath         = ValidationErrorCode("EmptyPath")
	MultipleOwners    = ValidationErrorCode("MultipleOwners")
	MultipleManifests = ValidationErrorCode("MultipleManifests")
	NoAssets          = ValidationErrorCode("NoAssets")
	NoManifest        = ValidationErrorCode("NoManifest")
	MissingFilePath   = ValidationErrorCode("MissingFilePath")
	UnresolvedJoin    = ValidationErrorCode("UnresolvedJoin")
	AlreadyLoaded     = ValidationErrorCode("AlreadyLoaded")
	FormatMismatch    = ValidationErrorCode("FormatMismatch")
	NoDerivatives     = ValidationErrorCode("NoDerivatives")
	InvalidMetadata   = ValidationErrorCode("InvalidMetadata")
)

// ErrNotATable is returned when an operation expecting a table gets none.
var ErrNotATable = errors.New("input is not a table")

type ValidationError struct {
	Code         ValidationErrorCode
	Description  string
	Description2 string
}

var validationErrors = map[ValidationErrorCode]*ValidationError{
	MissingField:      {Code: MissingField, Description: "table is missing a required field"},
	InvalidField:      {Code: InvalidField, Description: "field is not a valid inventory field"},
	Empty:             {Code: Empty, Description: "table cannot be empty"},
	EmptyPath:         {Code: EmptyPath, Description: "path cannot be empty"},
	MultipleOwners:    {Code: MultipleOwners, Description: "table must contain no more than one owner-supplied name"},
	MultipleManifests: {Code: MultipleManifests, Description: "table must contain no more than one structural file"},
	NoAssets:          {Code: NoAssets, Description: "table must contain at least one asset file"},
	NoManifest:        {Code: NoManifest, Description: "digital object requires exactly one structural file"},
	MissingFilePath:   {Code: MissingFilePath, Description: "column file_path cannot have empty values"},
	UnresolvedJoin:    {Code: UnresolvedJoin, Description: "derivative file does not resolve to exactly one asset file"},
	AlreadyLoaded:     {Code: AlreadyLoaded, Description: "instance has already been loaded"},
	FormatMismatch:    {Code: FormatMismatch, Description: "mismatch in count of derivative files per format"},
	NoDerivatives:     {Code: NoDerivatives, Description: "no derivative files in inventory"},
	InvalidMetadata:   {Code: InvalidMetadata, Description: "metadata was supplied but is missing required values"},
}

// New returns the catalogue entry for code, extended by a context description.
func New(code ValidationErrorCode, format string, a ...any) *ValidationError {
	ve, ok := validationErrors[code]
	if !ok {
		ve = &ValidationError{
			Code:        code,
			Description: fmt.Sprintf("unknown error %s", code),
		}
	}
	return ve.AppendDescription(format, a...)
}

func (ve *ValidationError) AppendDescription(format string, a ...any) *ValidationError {
	return &ValidationError{
		Code:         ve.Code,
		Description:  ve.Description,
		Description2: strings.TrimSpace(ve.Description2 + " " + fmt.Sprintf(format, a...)),
	}
}

func (ve *ValidationError) Error() string {
	if ve.Description2 == "" {
		return fmt.Sprintf("Validation Error #%s - %s", ve.Code, ve.Description)
	}
	return fmt.Sprintf("Validation Error #%s - %s [%s]", ve.Code, ve.Description, ve.Description2)
}

// HasCode reports whether err wraps a ValidationError with the given code.
func HasCode(err error, code ValidationErrorCode) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Code == code
}

// Code extracts the validation code of err, if any.
func Code(err error) (ValidationErrorCode, bool) {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return "", false
	}
	return ve.Code, true
}
