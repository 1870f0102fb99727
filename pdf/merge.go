package pdf

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merge appends docs[1:] onto docs[0] in order and writes the result to outFile.
func Merge(docs []*Document, outFile string) error {
	if len(docs) < 2 {
		return fmt.Errorf("%w: merge needs at least two documents, got %d", ErrLibraryIO, len(docs))
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		rs, err := doc.reader()
		if err != nil {
			return err
		}
		readers[i] = rs
	}

	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.MergeRaw(readers, w, false, newConfiguration()); err != nil {
			return classifyError("merge", err)
		}
		return nil
	})
}
