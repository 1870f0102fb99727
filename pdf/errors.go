package pdf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRange is returned for malformed or out-of-bounds page lists and split ranges.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidImageFormat is returned for image formats other than png, jpg and gif.
	ErrInvalidImageFormat = errors.New("unsupported image format")
	// ErrInvalidPermission is returned for permission names other than PRINT, MODIFY and EXTRACT.
	ErrInvalidPermission = errors.New("invalid permission")
	// ErrInvalidKeyLength is returned for key lengths other than 40, 128 and 256.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrAuthentication is returned when a document cannot be opened with the given password.
	ErrAuthentication = errors.New("authentication failed")
	// ErrLibraryIO covers every other read, write or processing failure.
	ErrLibraryIO = errors.New("pdf processing failed")

	errClosed = errors.New("document is closed")
)

// classifyError maps an error coming out of pdfcpu onto ErrAuthentication or ErrLibraryIO.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrLibraryIO) || errors.Is(err, ErrInvalidRange) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "password") {
		return fmt.Errorf("%w: %s: %v", ErrAuthentication, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrLibraryIO, op, err)
}

func isNotEncrypted(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not encrypted")
}
