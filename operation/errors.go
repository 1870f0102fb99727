package operation

import (
	"errors"
	"fmt"
	"strings"

	"pdftool/pdf"
)

var (
	ErrNoOperationSelected   = errors.New("no operation selected")
	ErrConflictingOperations = errors.New("conflicting operations")
	ErrDependentOptionMisuse = errors.New("dependent option misuse")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrTooManyInputFiles     = errors.New("too many input files")
	ErrTooFewInputFiles      = errors.New("too few input files")
	ErrInvalidDPI            = errors.New("invalid dpi")
	ErrInvalidDegree         = errors.New("invalid degree")

	ErrInvalidRange       = pdf.ErrInvalidRange
	ErrInvalidPermission  = pdf.ErrInvalidPermission
	ErrInvalidKeyLength   = pdf.ErrInvalidKeyLength
	ErrInvalidImageFormat = pdf.ErrInvalidImageFormat
	ErrAuthentication     = pdf.ErrAuthentication
	ErrLibraryIO          = pdf.ErrLibraryIO
)

// ConflictError lists every primary option that was given when only one is allowed.
type ConflictError struct {
	Options []Option
}

func (e *ConflictError) Error() string {
	names := make([]string, len(e.Options))
	for i, o := range e.Options {
		names[i] = o.Flag()
	}
	return fmt.Sprintf("options %s can not be used at the same time", strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrConflictingOperations) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingOperations
}

// IsValidation reports whether err was detected before any document was touched.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNoOperationSelected, ErrConflictingOperations, ErrDependentOptionMisuse,
		ErrUnsupportedFileType, ErrTooManyInputFiles, ErrTooFewInputFiles,
		ErrInvalidDPI, ErrInvalidDegree, ErrInvalidRange, ErrInvalidPermission,
		ErrInvalidKeyLength, ErrInvalidImageFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
