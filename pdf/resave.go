package pdf

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Save rewrites the document without security to outFile.
func (d *Document) Save(outFile string) error {
	rs, err := d.reader()
	if err != nil {
		return err
	}
	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.Optimize(rs, w, d.conf); err != nil {
			return classifyError("save", err)
		}
		return nil
	})
}

// SaveTemp writes the plain document into dir for collaborators that need a file path.
// The caller removes the returned file.
func (d *Document) SaveTemp(dir string) (string, error) {
	f, err := createTemp(dir, "pdftool-*.pdf")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()

	if err := d.Save(name); err != nil {
		removeQuietly(name)
		return "", err
	}
	return name, nil
}
