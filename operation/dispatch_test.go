package operation

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdftool/pdf"
)

func TestOutputBase(t *testing.T) {
	tests := map[string]string{
		"save":             "save",
		"save.pdf":         "save",
		"dir.v1/save":      "dir.v1/save",
		"archive.tar.gz":   "archive.tar",
		"/tmp/out/img.png": "/tmp/out/img",
	}
	for in, want := range tests {
		assert.Equal(t, want, OutputBase(in), in)
	}
}

func TestNewDispatcherWithoutLogger(t *testing.T) {
	d := NewDispatcher(nil, "", nil)
	l, ok := d.Log.(*logrus.Logger)
	require.True(t, ok)
	assert.Equal(t, io.Discard, l.Out)
}

func TestDispatchRemovePages(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12, 13, 14, 15)
	out := filepath.Join(dir, "out.pdf")

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), RemovePages{Pages: []int{1, 3, 5}}, []string{src}, out)
	require.NoError(t, err)

	assert.Equal(t, []string{out}, res.Outputs)
	assert.Equal(t, []int{12, 14}, pageWidths(t, out))
}

func TestDispatchMergeKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	a := makePDF(t, dir, "a.pdf", 11, 12)
	b := makePDF(t, dir, "b.pdf", 21, 22, 23)
	out := filepath.Join(dir, "merged.pdf")

	d := NewDispatcher(nil, dir, quietLogger())
	_, err := d.Run(context.Background(), Merge{}, []string{a, b}, out)
	require.NoError(t, err)

	assert.Equal(t, []int{11, 12, 21, 22, 23}, pageWidths(t, out))
}

func TestDispatchMergeEncryptedInputs(t *testing.T) {
	dir := t.TempDir()
	d := NewDispatcher(nil, dir, quietLogger())

	a := filepath.Join(dir, "a_locked.pdf")
	_, err := d.Run(context.Background(), Encrypt{Password: "one", KeyLength: 256}, []string{makePDF(t, dir, "a.pdf", 11)}, a)
	require.NoError(t, err)
	b := filepath.Join(dir, "b_locked.pdf")
	_, err = d.Run(context.Background(), Encrypt{Password: "two", KeyLength: 128}, []string{makePDF(t, dir, "b.pdf", 21)}, b)
	require.NoError(t, err)

	out := filepath.Join(dir, "merged.pdf")
	_, err = d.Run(context.Background(), Merge{}, []string{a + ":one", b + ":two"}, out)
	require.NoError(t, err)

	assert.Equal(t, []int{11, 21}, pageWidths(t, out))
	doc, err := pdf.Open(out, "")
	require.NoError(t, err)
	defer doc.Close()
	assert.False(t, doc.Encrypted())
}

func TestDispatchSplit(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12, 13, 14, 15, 16)
	out := filepath.Join(dir, "part.pdf")

	tokens, err := pdf.ParseSplitRanges("1-3,5,-2,5-")
	require.NoError(t, err)

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), Split{Ranges: tokens}, []string{src}, out)
	require.NoError(t, err)

	want := [][]int{{11, 12, 13}, {15}, {11, 12}, {15, 16}}
	require.Len(t, res.Outputs, len(want))
	for i, w := range want {
		assert.Equal(t, filepath.Join(dir, "part"+string(rune('1'+i))+".pdf"), res.Outputs[i])
		assert.Equal(t, w, pageWidths(t, res.Outputs[i]))
	}
}

func TestDispatchSplitOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12)

	tokens, err := pdf.ParseSplitRanges("1,3")
	require.NoError(t, err)

	d := NewDispatcher(nil, dir, quietLogger())
	_, err = d.Run(context.Background(), Split{Ranges: tokens}, []string{src}, filepath.Join(dir, "part.pdf"))
	require.ErrorIs(t, err, ErrInvalidRange)
	assert.NoFileExists(t, filepath.Join(dir, "part1.pdf"))
}

func TestDispatchRasterize(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12, 13)
	r := &fakeRasterizer{}

	d := NewDispatcher(r, dir, quietLogger())
	res, err := d.Run(context.Background(), RasterizeToImages{Format: pdf.FormatPNG, DPI: 150}, []string{src}, filepath.Join(dir, "page.png"))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, r.calls)
	assert.Equal(t, []int{150, 150, 150}, r.dpi)
	require.Len(t, res.Outputs, 3)
	for i, out := range res.Outputs {
		img, err := pdf.LoadImage(out)
		require.NoError(t, err)
		assert.Equal(t, 10*(i+1), img.Width())
	}
	assert.Equal(t, filepath.Join(dir, "page3.png"), res.Outputs[2])
}

func TestDispatchRasterizeZip(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12)

	d := NewDispatcher(&fakeRasterizer{}, dir, quietLogger())
	res, err := d.Run(context.Background(), RasterizeToImages{Format: pdf.FormatJPEG, DPI: 72, Zip: true}, []string{src}, filepath.Join(dir, "page"))
	require.NoError(t, err)

	require.True(t, res.Archived)
	require.Equal(t, []string{filepath.Join(dir, "page.zip")}, res.Outputs)
	assert.NoFileExists(t, filepath.Join(dir, "page1.jpg"))

	zr, err := zip.OpenReader(res.Outputs[0])
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "page1.jpg", zr.File[0].Name)
	assert.Equal(t, "page2.jpg", zr.File[1].Name)
}

func TestDispatchRasterizeFailure(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11)
	boom := errors.New("renderer exploded")

	d := NewDispatcher(&fakeRasterizer{err: boom}, dir, quietLogger())
	_, err := d.Run(context.Background(), RasterizeToImages{Format: pdf.FormatPNG, DPI: 72}, []string{src}, filepath.Join(dir, "page"))
	require.ErrorIs(t, err, boom)
}

func TestDispatchRasterizeWithoutRenderer(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11)

	d := NewDispatcher(nil, dir, quietLogger())
	_, err := d.Run(context.Background(), RasterizeToImages{Format: pdf.FormatPNG, DPI: 72}, []string{src}, filepath.Join(dir, "page"))
	require.ErrorIs(t, err, ErrLibraryIO)
}

func TestImagesToPdfThenRasterize(t *testing.T) {
	dir := t.TempDir()
	images := []string{writePNG(t, dir, 30, 10), writePNG(t, dir, 40, 10), writePNG(t, dir, 50, 10)}
	doc := filepath.Join(dir, "images.pdf")

	r := &fakeRasterizer{}
	d := NewDispatcher(r, dir, quietLogger())
	_, err := d.Run(context.Background(), ImagesToPdf{}, images, doc)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 40, 50}, pageWidths(t, doc))

	res, err := d.Run(context.Background(), RasterizeToImages{Format: pdf.FormatGIF, DPI: 72}, []string{doc}, filepath.Join(dir, "r.gif"))
	require.NoError(t, err)
	assert.Len(t, res.Outputs, len(images))
}

func TestDispatchExtractImages(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12)

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), ExtractImages{Format: pdf.FormatPNG}, []string{src}, filepath.Join(dir, "save"))
	require.NoError(t, err)

	require.Equal(t, []string{filepath.Join(dir, "save1.png"), filepath.Join(dir, "save2.png")}, res.Outputs)
	for i, out := range res.Outputs {
		img, err := pdf.LoadImage(out)
		require.NoError(t, err)
		assert.Equal(t, 11+i, img.Width())
	}
}

func TestDispatchExtractImagesZip(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12, 13)

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), ExtractImages{Format: pdf.FormatGIF, Zip: true}, []string{src}, filepath.Join(dir, "save.gif"))
	require.NoError(t, err)

	require.True(t, res.Archived)
	require.Equal(t, []string{filepath.Join(dir, "save.zip")}, res.Outputs)
	assert.NoFileExists(t, filepath.Join(dir, "save1.gif"))

	zr, err := zip.OpenReader(res.Outputs[0])
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 3)
	for i, f := range zr.File {
		assert.Equal(t, "save"+string(rune('1'+i))+".gif", f.Name)
	}
}

func TestDispatchExtractImagesNoneFound(t *testing.T) {
	dir := t.TempDir()
	src := makeEmptyPDF(t, dir, "blank.pdf")

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), ExtractImages{Format: pdf.FormatPNG, Zip: true}, []string{src}, filepath.Join(dir, "save"))
	require.NoError(t, err)

	assert.Empty(t, res.Outputs)
	assert.False(t, res.Archived)
	assert.NoFileExists(t, filepath.Join(dir, "save.zip"))
}

func TestDispatchEncryptRestrictsPermissions(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11)
	out := filepath.Join(dir, "limited.pdf")

	d := NewDispatcher(nil, dir, quietLogger())
	res, err := d.Run(context.Background(), Encrypt{KeyLength: 256, Denied: pdf.NewPermissionSet(pdf.PermissionPrint)}, []string{src}, out)
	require.NoError(t, err)

	assert.Equal(t, OptLimitPermission, res.Operation)
	assert.FileExists(t, out)
}

func TestDispatchClosesInputsOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "in.pdf", 11, 12)

	in, err := ResolveInputs(RemovePages{}, []string{src})
	require.NoError(t, err)
	doc := in.Documents[0]

	d := NewDispatcher(nil, dir, quietLogger())
	_, err = d.Dispatch(context.Background(), RemovePages{Pages: []int{9}}, in, filepath.Join(dir, "out.pdf"))
	require.ErrorIs(t, err, ErrInvalidRange)

	err = doc.Save(filepath.Join(dir, "after.pdf"))
	require.ErrorIs(t, err, ErrLibraryIO, "document must be closed after dispatch")
}

func TestDispatchChecksLoadedInputs(t *testing.T) {
	d := NewDispatcher(nil, t.TempDir(), quietLogger())
	_, err := d.Dispatch(context.Background(), Merge{}, &Inputs{}, "out.pdf")
	require.ErrorIs(t, err, ErrTooFewInputFiles)
}
