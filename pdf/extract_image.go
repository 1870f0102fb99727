package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	tkn "github.com/benoitkugler/pstokenizer"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"
)

// ImageVisitor receives painted images in order. n starts at 1 and counts across the whole document.
type ImageVisitor func(n int, page int, img image.Image) error

// ExtractImages walks the content of every page depth-first and calls visit for each image XObject
// painted by a Do operator. Form XObjects are entered recursively and never counted themselves.
// An image painted twice is visited twice. It returns the number of images visited.
func (d *Document) ExtractImages(log logrus.FieldLogger, visit ImageVisitor) (int, error) {
	rs, err := d.reader()
	if err != nil {
		return 0, err
	}
	ctx, err := api.ReadContext(rs, d.conf)
	if err != nil {
		return 0, classifyError("read", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, classifyError("page count", err)
	}

	decoded, err := d.libraryImages()
	if err != nil {
		return 0, err
	}

	w := &imageWalker{
		ctx:     ctx,
		decoded: decoded,
		visit:   visit,
		active:  map[int]bool{},
		log:     log,
	}
	for page := 1; page <= ctx.PageCount; page++ {
		w.page = page
		dict, _, _, err := ctx.PageDict(page, false)
		if err != nil {
			return w.count, classifyError(fmt.Sprintf("page %d", page), err)
		}
		if dict == nil {
			continue
		}
		res, err := pageResources(ctx, dict)
		if err != nil {
			return w.count, classifyError(fmt.Sprintf("page %d resources", page), err)
		}
		content, err := pageContent(ctx, dict)
		if err != nil {
			return w.count, classifyError(fmt.Sprintf("page %d content", page), err)
		}
		if err := w.walk(content, res); err != nil {
			return w.count, err
		}
	}
	return w.count, nil
}

// libraryImages collects the images pdfcpu can decode, keyed by object number.
func (d *Document) libraryImages() (map[int]libraryImage, error) {
	rs, err := d.reader()
	if err != nil {
		return nil, err
	}

	images := map[int]libraryImage{}
	err = api.ExtractImages(rs, nil, func(img model.Image, _ bool, _ int) error {
		if _, ok := images[img.ObjNr]; ok {
			return nil
		}
		data, err := io.ReadAll(img.Reader)
		if err != nil {
			return err
		}
		images[img.ObjNr] = libraryImage{data: data, fileType: img.FileType}
		return nil
	}, d.conf)
	if err != nil {
		return nil, classifyError("extract images", err)
	}
	return images, nil
}

type libraryImage struct {
	data     []byte
	fileType string
}

type imageWalker struct {
	ctx     *model.Context
	decoded map[int]libraryImage
	visit   ImageVisitor
	log     logrus.FieldLogger

	page  int
	count int
	// forms on the current recursion path, by object number
	active map[int]bool
}

func (w *imageWalker) walk(content []byte, res types.Dict) error {
	xobjects := types.Dict{}
	if res != nil {
		if obj, ok := res.Find("XObject"); ok {
			d, err := w.ctx.DereferenceDict(obj)
			if err != nil {
				return classifyError("xobject resources", err)
			}
			if d != nil {
				xobjects = d
			}
		}
	}

	tokens := tkn.NewTokenizer(stripInlineImages(content))
	var operand string
	for {
		tok, err := tokens.NextToken()
		if err != nil {
			return fmt.Errorf("%w: page %d: content stream: %v", ErrLibraryIO, w.page, err)
		}
		switch tok.Kind {
		case tkn.EOF:
			return nil
		case tkn.Name:
			operand = string(tok.Value)
		case tkn.Other:
			if string(tok.Value) == "Do" && operand != "" {
				if err := w.paint(operand, xobjects, res); err != nil {
					return err
				}
			}
			operand = ""
		}
	}
}

func (w *imageWalker) paint(name string, xobjects, parentRes types.Dict) error {
	ref, ok := xobjects.Find(name)
	if !ok {
		w.log.WithFields(logrus.Fields{"page": w.page, "xobject": name}).Warn("Do references missing XObject")
		return nil
	}

	objNr := 0
	if ir, ok := ref.(types.IndirectRef); ok {
		objNr = ir.ObjectNumber.Value()
	}

	obj, err := w.ctx.Dereference(ref)
	if err != nil {
		return classifyError("xobject "+name, err)
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil
	}

	subtype := sd.Dict.NameEntry("Subtype")
	if subtype == nil {
		return nil
	}
	switch *subtype {
	case "Image":
		img, err := w.decodeImage(objNr, sd)
		if err != nil {
			w.log.WithFields(logrus.Fields{"page": w.page, "xobject": name, "obj": objNr}).
				Warnf("Skipping image: %v", err)
			return nil
		}
		w.count++
		w.log.WithFields(logrus.Fields{"page": w.page, "image": w.count}).Debug("Handle image")
		return w.visit(w.count, w.page, img)
	case "Form":
		if objNr != 0 && w.active[objNr] {
			return nil
		}
		return w.enterForm(objNr, sd, parentRes)
	}
	return nil
}

func (w *imageWalker) enterForm(objNr int, sd types.StreamDict, parentRes types.Dict) error {
	if objNr != 0 {
		w.active[objNr] = true
		defer delete(w.active, objNr)
	}

	res := parentRes
	if obj, ok := sd.Dict.Find("Resources"); ok {
		d, err := w.ctx.DereferenceDict(obj)
		if err != nil {
			return classifyError("form resources", err)
		}
		if d != nil {
			res = d
		}
	}

	content, err := streamContent(w.ctx, sd)
	if err != nil {
		return classifyError("form content", err)
	}
	return w.walk(content, res)
}

func (w *imageWalker) decodeImage(objNr int, sd types.StreamDict) (image.Image, error) {
	if li, ok := w.decoded[objNr]; ok {
		img, _, err := image.Decode(bytes.NewReader(li.data))
		if err == nil {
			return img, nil
		}
		w.log.WithField("obj", objNr).Debugf("Library image %s not decodable: %v", li.fileType, err)
	}
	return decodeRawImage(w.ctx, sd)
}

// decodeRawImage handles the stream layouts common in generated files: a sole DCTDecode filter,
// or 8 bit DeviceRGB and DeviceGray samples after decoding.
func decodeRawImage(ctx *model.Context, sd types.StreamDict) (image.Image, error) {
	if len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == "DCTDecode" {
		img, err := jpeg.Decode(bytes.NewReader(sd.Raw))
		if err != nil {
			return nil, fmt.Errorf("jpeg: %v", err)
		}
		return img, nil
	}

	decoded, _, err := ctx.DereferenceStreamDict(sd)
	if err != nil || decoded == nil {
		return nil, fmt.Errorf("stream not decodable: %v", err)
	}
	if err := decoded.Decode(); err != nil {
		return nil, fmt.Errorf("stream not decodable: %v", err)
	}

	width, height, bpc := decoded.Dict.IntEntry("Width"), decoded.Dict.IntEntry("Height"), decoded.Dict.IntEntry("BitsPerComponent")
	if width == nil || height == nil || bpc == nil || *bpc != 8 {
		return nil, fmt.Errorf("unsupported sample layout")
	}
	cs := decoded.Dict.NameEntry("ColorSpace")
	if cs == nil {
		return nil, fmt.Errorf("unsupported color space")
	}

	w, h, data := *width, *height, decoded.Content
	switch *cs {
	case "DeviceRGB":
		if len(data) < w*h*3 {
			return nil, fmt.Errorf("short sample data")
		}
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			img.Pix[i*4] = data[i*3]
			img.Pix[i*4+1] = data[i*3+1]
			img.Pix[i*4+2] = data[i*3+2]
			img.Pix[i*4+3] = 0xff
		}
		return img, nil
	case "DeviceGray":
		if len(data) < w*h {
			return nil, fmt.Errorf("short sample data")
		}
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, data[:w*h])
		return img, nil
	}
	return nil, fmt.Errorf("unsupported color space %s", *cs)
}

// pageResources returns the resource dictionary of a page, following Parent for inherited resources.
func pageResources(ctx *model.Context, page types.Dict) (types.Dict, error) {
	d := page
	for i := 0; i < maxResourceDepth && d != nil; i++ {
		if obj, ok := d.Find("Resources"); ok {
			return ctx.DereferenceDict(obj)
		}
		parent, ok := d.Find("Parent")
		if !ok {
			return nil, nil
		}
		var err error
		if d, err = ctx.DereferenceDict(parent); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// pageContent concatenates the decoded content streams of a page.
func pageContent(ctx *model.Context, page types.Dict) ([]byte, error) {
	obj, ok := page.Find("Contents")
	if !ok {
		return nil, nil
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	var streams []types.Object
	switch o := obj.(type) {
	case types.StreamDict:
		streams = append(streams, o)
	case types.Array:
		streams = o
	default:
		return nil, nil
	}

	var buf bytes.Buffer
	for _, s := range streams {
		content, err := streamContent(ctx, s)
		if err != nil {
			return nil, err
		}
		buf.Write(content)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// streamContent resolves a stream and runs its filter pipeline. A reference to a missing
// object yields no content.
func streamContent(ctx *model.Context, obj types.Object) ([]byte, error) {
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return nil, err
	}
	if err := sd.Decode(); err != nil {
		return nil, err
	}
	return sd.Content, nil
}

// stripInlineImages removes BI ... ID ... EI sequences. Inline images are not XObjects and their
// binary payload would otherwise reach the tokenizer.
func stripInlineImages(content []byte) []byte {
	var out []byte
	for {
		bi := indexOperator(content, "BI")
		if bi < 0 {
			return append(out, content...)
		}
		out = append(out, content[:bi]...)
		id := indexOperator(content[bi:], "ID")
		if id < 0 {
			return out
		}
		data := bi + id + len("ID")
		ei := indexOperator(content[data:], "EI")
		if ei < 0 {
			return out
		}
		out = append(out, ' ')
		content = content[data+ei+len("EI"):]
	}
}

// indexOperator finds op as a standalone token, delimited by whitespace or the buffer bounds.
func indexOperator(b []byte, op string) int {
	for i := 0; i < len(b); {
		j := bytes.Index(b[i:], []byte(op))
		if j < 0 {
			return -1
		}
		j += i
		end := j + len(op)
		if (j == 0 || isSpace(b[j-1])) && (end == len(b) || isSpace(b[end])) {
			return j
		}
		i = j + 1
	}
	return -1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}
