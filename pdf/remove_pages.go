package pdf

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// RemovePages deletes the given original page numbers and writes the rest to outFile.
// Duplicates are ignored. Removing every page is rejected.
func (d *Document) RemovePages(pages []int, outFile string) error {
	if err := ValidatePageNumbers(pages, d.pages); err != nil {
		return err
	}

	plan := PlanRemoval(pages)
	if len(plan) >= d.pages {
		return fmt.Errorf("%w: cannot remove all %d pages", ErrInvalidRange, d.pages)
	}

	pageStrs := make([]string, len(plan))
	for i, p := range plan {
		pageStrs[i] = strconv.Itoa(p)
	}

	rs, err := d.reader()
	if err != nil {
		return err
	}
	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.RemovePages(rs, w, pageStrs, d.conf); err != nil {
			return classifyError("remove pages", err)
		}
		return nil
	})
}
