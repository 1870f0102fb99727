package operation

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"pdftool/archive"
	"pdftool/pdf"
)

// Result lists the files an operation produced. When outputs were archived, Outputs holds
// the archive only.
type Result struct {
	Operation Option
	Outputs   []string
	Archived  bool
}

// Dispatcher executes validated requests against opened inputs.
type Dispatcher struct {
	Rasterizer pdf.Rasterizer
	TempDir    string
	Log        logrus.FieldLogger
}

// NewDispatcher creates a dispatcher. A nil log discards progress messages.
func NewDispatcher(r pdf.Rasterizer, tempDir string, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Dispatcher{Rasterizer: r, TempDir: tempDir, Log: log}
}

// OutputBase strips the extension from output. Multi-file outputs are named <base><n>.<ext>.
func OutputBase(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output))
}

// Run resolves the input tokens for req and dispatches it.
func (d *Dispatcher) Run(ctx context.Context, req Request, tokens []string, output string) (*Result, error) {
	in, err := ResolveInputs(req, tokens)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, req, in, output)
}

// Dispatch executes req. Every document in in is closed before it returns, on success or failure.
// Files already written by a failing multi-file operation are left in place.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, in *Inputs, output string) (*Result, error) {
	defer in.Close()

	if err := checkLoaded(req, in); err != nil {
		return nil, err
	}

	log := d.Log.WithField("operation", string(req.Name()))
	res := &Result{Operation: req.Name()}

	var err error
	switch r := req.(type) {
	case Decrypt:
		log.Info("Start to decrypt")
		err = d.single(res, output, in.Documents[0].Save)
	case Encrypt:
		err = d.encrypt(log, r, in.Documents[0], res, output)
	case Merge:
		log.WithField("inputs", len(in.Documents)).Info("Start to merge")
		err = d.single(res, output, func(out string) error { return pdf.Merge(in.Documents, out) })
	case RemovePages:
		log.WithField("pages", r.Pages).Info("Start to remove pages")
		err = d.single(res, output, func(out string) error { return in.Documents[0].RemovePages(r.Pages, out) })
	case Rotate:
		log.WithField("degree", r.Degree).Info("Start to rotate")
		err = d.single(res, output, func(out string) error { return in.Documents[0].Rotate(r.Degree, out) })
	case Split:
		err = d.split(log, r, in.Documents[0], res, output)
	case RasterizeToImages:
		err = d.rasterize(ctx, log, r, in.Documents[0], res, output)
	case ImagesToPdf:
		log.WithField("images", len(in.Images)).Info("Start to convert images to PDF")
		err = d.single(res, output, func(out string) error { return pdf.ImagesToPDF(in.Images, out) })
	case ExtractImages:
		err = d.extract(log, r, in.Documents[0], res, output)
	default:
		err = fmt.Errorf("%w: unknown request %T", ErrNoOperationSelected, req)
	}
	return res, err
}

func checkLoaded(req Request, in *Inputs) error {
	if in == nil {
		return fmt.Errorf("%w: no inputs", ErrTooFewInputFiles)
	}
	class, least, _ := req.Inputs()
	n := len(in.Documents)
	if class == ClassImage {
		n = len(in.Images)
	}
	if n < least {
		return fmt.Errorf("%w: %s needs %d inputs, got %d", ErrTooFewInputFiles, req.Name().Flag(), least, n)
	}
	return nil
}

func (d *Dispatcher) single(res *Result, output string, write func(string) error) error {
	if err := write(output); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, output)
	return nil
}

func (d *Dispatcher) encrypt(log logrus.FieldLogger, r Encrypt, doc *pdf.Document, res *Result, output string) error {
	log.Info("Start to encrypt")

	policy := pdf.NewPasswordPolicy(r.Password, r.KeyLength)
	if r.Restricting() {
		var err error
		if policy, err = pdf.NewRestrictionPolicy(r.Denied); err != nil {
			return err
		}
		for _, p := range r.Denied.Sorted() {
			log.Infof("Limit %s", p)
		}
	} else {
		log.WithField("key_length", r.KeyLength).Info("Set password")
	}

	return d.single(res, output, func(out string) error { return doc.Protect(policy, out) })
}

func (d *Dispatcher) split(log logrus.FieldLogger, r Split, doc *pdf.Document, res *Result, output string) error {
	log.Info("Start to split")

	ranges, err := pdf.ResolveSplitRanges(r.Ranges, doc.PageCount())
	if err != nil {
		return err
	}

	base := OutputBase(output)
	for i, rg := range ranges {
		out := fmt.Sprintf("%s%d.pdf", base, i+1)
		log.WithFields(logrus.Fields{"range": rg.String(), "file": out}).Debug("Write part")
		if err := doc.Collect(rg, out); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)
	}
	return nil
}

func (d *Dispatcher) rasterize(ctx context.Context, log logrus.FieldLogger, r RasterizeToImages, doc *pdf.Document, res *Result, output string) error {
	log.WithField("dpi", r.DPI).Info("Start to convert PDF to images")
	if d.Rasterizer == nil {
		return fmt.Errorf("%w: no renderer configured", ErrLibraryIO)
	}

	src, err := doc.SaveTemp(d.TempDir)
	if err != nil {
		return err
	}
	defer os.Remove(src)

	base := OutputBase(output)
	for page := 1; page <= doc.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Infof("Handle Page %d", page)

		img, err := d.Rasterizer.RenderPage(ctx, src, page, r.DPI)
		if err != nil {
			return err
		}
		out := fmt.Sprintf("%s%d.%s", base, page, r.Format.Extension())
		if err := pdf.WriteImageFile(out, img, r.Format); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)
	}

	if r.Zip {
		return d.bundle(log, res, output)
	}
	return nil
}

func (d *Dispatcher) extract(log logrus.FieldLogger, r ExtractImages, doc *pdf.Document, res *Result, output string) error {
	log.Info("Start to extract images")

	base := OutputBase(output)
	n, err := doc.ExtractImages(log, func(n, _ int, img image.Image) error {
		out := fmt.Sprintf("%s%d.%s", base, n, r.Format.Extension())
		if err := pdf.WriteImageFile(out, img, r.Format); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, out)
		return nil
	})
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("No images found")
		return nil
	}

	if r.Zip {
		return d.bundle(log, res, output)
	}
	return nil
}

func (d *Dispatcher) bundle(log logrus.FieldLogger, res *Result, output string) error {
	path := archive.Path(output)
	if err := archive.Bundle(res.Outputs, path, log); err != nil {
		return fmt.Errorf("%w: %w", ErrLibraryIO, err)
	}
	res.Outputs = []string{path}
	res.Archived = true
	return nil
}
