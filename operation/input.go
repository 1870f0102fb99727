package operation

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"pdftool/pdf"
)

// InputSpec is one input token split into a path and an optional password.
type InputSpec struct {
	Path     string
	Password string
}

// ParseInputSpec splits token on its first ':'. Paths containing ':' cannot be expressed.
func ParseInputSpec(token string) InputSpec {
	path, password, _ := strings.Cut(token, ":")
	return InputSpec{Path: path, Password: password}
}

// Inputs are the opened inputs of one request. Exactly one of the slices is populated.
type Inputs struct {
	Documents []*pdf.Document
	Images    []*pdf.Image
}

// Close releases every opened document.
func (in *Inputs) Close() error {
	if in == nil {
		return nil
	}
	var errs []error
	for _, doc := range in.Documents {
		if err := doc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	in.Documents = nil
	in.Images = nil
	return errors.Join(errs...)
}

// CheckInputs validates the count and suffix of every token against the request.
func CheckInputs(req Request, tokens []string) ([]InputSpec, error) {
	class, least, most := req.Inputs()

	specs := make([]InputSpec, len(tokens))
	for i, tok := range tokens {
		specs[i] = ParseInputSpec(tok)
		if err := checkSuffix(specs[i].Path, class); err != nil {
			return nil, err
		}
	}

	switch {
	case len(specs) < least && least > 1:
		return nil, fmt.Errorf("%w: %s needs at least %d files, got %d", ErrTooFewInputFiles, req.Name().Flag(), least, len(specs))
	case len(specs) < least:
		return nil, fmt.Errorf("%w: no input file given", ErrTooFewInputFiles)
	case most > 0 && len(specs) > most:
		return nil, fmt.Errorf("%w: you can only input one %s file", ErrTooManyInputFiles, class)
	}
	return specs, nil
}

func checkSuffix(path string, class InputClass) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch class {
	case ClassImage:
		if !slices.Contains(pdf.ImageSuffixes, ext) {
			return fmt.Errorf("%w: '%s' isn't a supported image file", ErrUnsupportedFileType, path)
		}
	default:
		if ext != ".pdf" {
			return fmt.Errorf("%w: '%s' isn't PDF file", ErrUnsupportedFileType, path)
		}
	}
	return nil
}

// sniff rejects files whose content contradicts their suffix.
func sniff(path string, class InputClass) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %v", ErrLibraryIO, path, err)
	}
	switch class {
	case ClassImage:
		if !strings.HasPrefix(mt.String(), "image/") {
			return fmt.Errorf("%w: '%s' contains %s, not an image", ErrUnsupportedFileType, path, mt.String())
		}
	default:
		if !mt.Is("application/pdf") {
			return fmt.Errorf("%w: '%s' contains %s, not a PDF", ErrUnsupportedFileType, path, mt.String())
		}
	}
	return nil
}

// ResolveInputs checks tokens against req and opens every input. If any input fails to open,
// the ones already opened are closed before returning.
func ResolveInputs(req Request, tokens []string) (*Inputs, error) {
	specs, err := CheckInputs(req, tokens)
	if err != nil {
		return nil, err
	}
	class, _, _ := req.Inputs()

	in := &Inputs{}
	for _, spec := range specs {
		if err := sniff(spec.Path, class); err != nil {
			in.Close()
			return nil, err
		}

		if class == ClassImage {
			img, err := pdf.LoadImage(spec.Path)
			if err != nil {
				in.Close()
				return nil, err
			}
			in.Images = append(in.Images, img)
			continue
		}

		doc, err := pdf.Open(spec.Path, spec.Password)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.Documents = append(in.Documents, doc)
	}
	return in, nil
}
