package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a user config dir with fonts on first use.
	api.DisableConfigDir()
}

// Document is an opened PDF held in memory. Security is removed while opening, so every
// operation works on the plain document and only Protect writes an encrypted file.
type Document struct {
	path      string
	raw       []byte
	pages     int
	encrypted bool
	conf      *model.Configuration
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads the PDF at path, decrypting it with password when it is encrypted.
// A wrong password yields ErrAuthentication; anything else unreadable yields ErrLibraryIO.
func Open(path, password string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrLibraryIO, path, err)
	}
	return OpenBytes(path, raw, password)
}

// OpenBytes is Open for a document that is already in memory. name is used in messages only.
func OpenBytes(name string, raw []byte, password string) (*Document, error) {
	conf := newConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	doc := &Document{path: name, conf: newConfiguration()}

	var plain bytes.Buffer
	err := api.Decrypt(bytes.NewReader(raw), &plain, conf)
	switch {
	case err == nil:
		doc.raw = plain.Bytes()
		doc.encrypted = true
	case isNotEncrypted(err):
		doc.raw = raw
	default:
		return nil, classifyError("open "+name, err)
	}

	pages, err := api.PageCount(bytes.NewReader(doc.raw), doc.conf)
	if err != nil {
		return nil, classifyError("open "+name, err)
	}
	doc.pages = pages
	return doc, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pages }

// Encrypted reports whether the source file carried security that was removed on open.
func (d *Document) Encrypted() bool { return d.encrypted }

// Close releases the document. Any later operation fails.
func (d *Document) Close() error {
	d.raw = nil
	return nil
}

func (d *Document) reader() (io.ReadSeeker, error) {
	if d.raw == nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryIO, d.path, errClosed)
	}
	return bytes.NewReader(d.raw), nil
}

// writeOutput runs produce against an in-memory buffer and only creates outFile when
// produce succeeded.
func writeOutput(outFile string, produce func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := produce(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(outFile, buf.Bytes(), DefaultFilePermissions); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrLibraryIO, outFile, err)
	}
	return nil
}
