package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Rasterizer renders a single page of a PDF file to an image.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdfPath string, page, dpi int) (image.Image, error)
}

// CommandRasterizer renders pages with a pdftoppm compatible command.
// Command holds the executable and any leading arguments.
type CommandRasterizer struct {
	Command []string
	Timeout time.Duration
	TempDir string
	Log     logrus.FieldLogger
}

// DefaultRendererCommand is used when no renderer is configured.
var DefaultRendererCommand = []string{"pdftoppm"}

// NewCommandRasterizer returns a rasterizer for command, falling back to pdftoppm.
func NewCommandRasterizer(command []string, timeout time.Duration, tempDir string, log logrus.FieldLogger) *CommandRasterizer {
	if len(command) == 0 {
		command = DefaultRendererCommand
	}
	return &CommandRasterizer{Command: command, Timeout: timeout, TempDir: tempDir, Log: log}
}

// RenderPage runs the renderer for one page at dpi and decodes its PNG output.
func (r *CommandRasterizer) RenderPage(ctx context.Context, pdfPath string, page, dpi int) (image.Image, error) {
	dir, err := os.MkdirTemp(r.TempDir, "pdftool-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create render directory: %v", ErrLibraryIO, err)
	}
	defer removeQuietly(dir)

	n := strconv.Itoa(page)
	prefix := filepath.Join(dir, "page")
	args := append([]string{}, r.Command[1:]...)
	args = append(args, "-r", strconv.Itoa(dpi), "-png", "-f", n, "-l", n, "-singlefile", pdfPath, prefix)

	if r.Log != nil {
		r.Log.WithFields(logrus.Fields{"command": r.Command[0], "page": page, "dpi": dpi}).Debug("Rendering page")
	}
	output, err := execCommandWithTimeout(ctx, r.Timeout, r.Command[0], args...)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return nil, fmt.Errorf("%w: render page %d: %v: %s", ErrLibraryIO, page, err, msg)
		}
		return nil, fmt.Errorf("%w: render page %d: %v", ErrLibraryIO, page, err)
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: renderer produced no image for page %d: %v", ErrLibraryIO, page, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode rendered page %d: %v", ErrLibraryIO, page, err)
	}
	return img, nil
}
