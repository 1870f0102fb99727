package pdf

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Collect writes the pages of r, in order, as a new document to outFile.
func (d *Document) Collect(r PageRange, outFile string) error {
	if err := ValidatePageNumbers([]int{r.Start, r.End}, d.pages); err != nil {
		return err
	}

	rs, err := d.reader()
	if err != nil {
		return err
	}
	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.Collect(rs, w, []string{r.String()}, d.conf); err != nil {
			return classifyError("split "+r.String(), err)
		}
		return nil
	})
}
