package pdf

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Rotate adds degree to the rotation of every page and writes the result to outFile.
// degree must be a multiple of 90; a full turn saves the document unchanged.
func (d *Document) Rotate(degree int, outFile string) error {
	degree = NormalizeRotation(degree)
	if degree == 0 {
		return d.Save(outFile)
	}

	rs, err := d.reader()
	if err != nil {
		return err
	}
	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.Rotate(rs, w, degree, nil, d.conf); err != nil {
			return classifyError("rotate", err)
		}
		return nil
	})
}
