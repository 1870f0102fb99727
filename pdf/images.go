package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageFormat is an output encoding for rendered or extracted images.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpg"
	FormatGIF  ImageFormat = "gif"
)

// ImageFormats lists the accepted format names.
var ImageFormats = []string{"png", "jpg", "jpeg", "gif"}

// ImageSuffixes lists the file suffixes accepted as image input.
var ImageSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp"}

// ParseImageFormat accepts png, jpg, jpeg and gif in any case. jpeg is stored as jpg.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	}
	return "", fmt.Errorf("%w: %q, you only can choose PNG, JPG and GIF", ErrInvalidImageFormat, s)
}

// Extension returns the file extension without the dot.
func (f ImageFormat) Extension() string { return string(f) }

// EncodeImage writes img to w in format f.
func EncodeImage(w io.Writer, img image.Image, f ImageFormat) error {
	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatGIF:
		err = gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidImageFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrLibraryIO, f, err)
	}
	return nil
}

// WriteImageFile encodes img into a new file at path.
func WriteImageFile(path string, img image.Image, f ImageFormat) error {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), DefaultFilePermissions); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrLibraryIO, path, err)
	}
	return nil
}

// Image is a decoded raster input.
type Image struct {
	Path   string
	Format string
	Image  image.Image
}

// Width returns the width in pixels.
func (i *Image) Width() int { return i.Image.Bounds().Dx() }

// Height returns the height in pixels.
func (i *Image) Height() int { return i.Image.Bounds().Dy() }

// LoadImage decodes a png, jpeg, gif, tiff or bmp file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrLibraryIO, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrLibraryIO, filepath.Base(path), err)
	}
	return &Image{Path: path, Format: format, Image: img}, nil
}

// toNRGBA converts img to 8 bit NRGBA, the only layout gofpdf embeds for every source format.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// ImagesToPDF writes one page per image to outFile. Every page has exactly the pixel size of its
// image, one pixel per point, with the image drawn at the origin.
func ImagesToPDF(images []*Image, outFile string) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: no images to convert", ErrLibraryIO)
	}

	first := gofpdf.SizeType{Wd: float64(images[0].Width()), Ht: float64(images[0].Height())}
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: first})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	for i, img := range images {
		size := gofpdf.SizeType{Wd: float64(img.Width()), Ht: float64(img.Height())}

		var buf bytes.Buffer
		if err := png.Encode(&buf, toNRGBA(img.Image)); err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrLibraryIO, img.Path, err)
		}

		name := "img" + strconv.Itoa(i+1)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		doc.AddPageFormat("P", size)
		doc.RegisterImageOptionsReader(name, opts, &buf)
		doc.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
		if err := doc.Error(); err != nil {
			return fmt.Errorf("%w: add %s: %v", ErrLibraryIO, filepath.Base(img.Path), err)
		}
	}

	return writeOutput(outFile, func(w io.Writer) error {
		if err := doc.Output(w); err != nil {
			return fmt.Errorf("%w: write pdf: %v", ErrLibraryIO, err)
		}
		return nil
	})
}
