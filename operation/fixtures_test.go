package operation

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"pdftool/pdf"
)

func writePNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	path := filepath.Join(dir, "img"+strconv.Itoa(width)+"x"+strconv.Itoa(height)+".png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// makePDF builds a document with one page per width.
func makePDF(t *testing.T, dir, name string, widths ...int) string {
	t.Helper()
	var images []*pdf.Image
	for _, w := range widths {
		img, err := pdf.LoadImage(writePNG(t, dir, w, 40))
		require.NoError(t, err)
		images = append(images, img)
	}
	out := filepath.Join(dir, name)
	require.NoError(t, pdf.ImagesToPDF(images, out))
	return out
}

// makeEmptyPDF builds a one page document without images.
func makeEmptyPDF(t *testing.T, dir, name string) string {
	t.Helper()
	doc := gofpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	out := filepath.Join(dir, name)
	require.NoError(t, doc.OutputFileAndClose(out))
	return out
}

func pageWidths(t *testing.T, path string) []int {
	t.Helper()
	dims, err := api.PageDimsFile(path)
	require.NoError(t, err)
	widths := make([]int, len(dims))
	for i, d := range dims {
		widths[i] = int(d.Width + 0.5)
	}
	return widths
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeRasterizer renders page n as an image 10*n pixels wide.
type fakeRasterizer struct {
	mu    sync.Mutex
	calls []int
	dpi   []int
	err   error
}

func (f *fakeRasterizer) RenderPage(_ context.Context, pdfPath string, page, dpi int) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, page)
	f.dpi = append(f.dpi, dpi)
	return image.NewNRGBA(image.Rect(0, 0, 10*page, 5)), nil
}
