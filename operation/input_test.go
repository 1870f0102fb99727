package operation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputSpec(t *testing.T) {
	tests := []struct {
		token string
		want  InputSpec
	}{
		{token: "file.pdf", want: InputSpec{Path: "file.pdf"}},
		{token: "file.pdf:secret", want: InputSpec{Path: "file.pdf", Password: "secret"}},
		{token: "file.pdf:a:b", want: InputSpec{Path: "file.pdf", Password: "a:b"}},
		{token: "file.pdf:", want: InputSpec{Path: "file.pdf"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseInputSpec(tt.token), tt.token)
	}
}

func TestCheckInputs(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		tokens  []string
		wantErr error
		msg     string
	}{
		{name: "single pdf", req: Decrypt{}, tokens: []string{"a.pdf"}},
		{name: "upper case suffix", req: Decrypt{}, tokens: []string{"A.PDF:pw"}},
		{name: "two for merge", req: Merge{}, tokens: []string{"a.pdf", "b.pdf:x"}},
		{name: "images", req: ImagesToPdf{}, tokens: []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.tif", "f.tiff", "g.bmp"}},
		{name: "not a pdf", req: Decrypt{}, tokens: []string{"a.txt"}, wantErr: ErrUnsupportedFileType, msg: "'a.txt' isn't PDF file"},
		{name: "pdf for images", req: ImagesToPdf{}, tokens: []string{"a.pdf"}, wantErr: ErrUnsupportedFileType},
		{name: "image for split", req: Split{}, tokens: []string{"a.png"}, wantErr: ErrUnsupportedFileType},
		{name: "two for decrypt", req: Decrypt{}, tokens: []string{"a.pdf", "b.pdf"}, wantErr: ErrTooManyInputFiles, msg: "you can only input one PDF file"},
		{name: "one for merge", req: Merge{}, tokens: []string{"a.pdf"}, wantErr: ErrTooFewInputFiles, msg: "-m needs at least 2 files, got 1"},
		{name: "none", req: Rotate{}, tokens: nil, wantErr: ErrTooFewInputFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := CheckInputs(tt.req, tt.tokens)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.msg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, specs, len(tt.tokens))
		})
	}
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	a := makePDF(t, dir, "a.pdf", 11, 12)
	b := makePDF(t, dir, "b.pdf", 21)

	in, err := ResolveInputs(Merge{}, []string{a, b + ":ignored"})
	require.NoError(t, err)
	defer in.Close()

	require.Len(t, in.Documents, 2)
	assert.Equal(t, 2, in.Documents[0].PageCount())
	assert.Equal(t, 1, in.Documents[1].PageCount())
}

func TestResolveInputsSniffsContent(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("just some text\n"), 0o644))

	_, err := ResolveInputs(Decrypt{}, []string{fake})
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	png := writePNG(t, dir, 5, 5)
	renamed := filepath.Join(dir, "image.pdf")
	require.NoError(t, os.Rename(png, renamed))
	_, err = ResolveInputs(Decrypt{}, []string{renamed})
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestResolveInputsMissingFile(t *testing.T) {
	_, err := ResolveInputs(Decrypt{}, []string{filepath.Join(t.TempDir(), "missing.pdf")})
	require.ErrorIs(t, err, ErrLibraryIO)
}

func TestResolveInputsImages(t *testing.T) {
	dir := t.TempDir()
	in, err := ResolveInputs(ImagesToPdf{}, []string{writePNG(t, dir, 3, 4), writePNG(t, dir, 5, 6)})
	require.NoError(t, err)
	defer in.Close()

	require.Len(t, in.Images, 2)
	assert.Equal(t, 3, in.Images[0].Width())
	assert.Equal(t, 6, in.Images[1].Height())
}

func TestResolveInputsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "a.pdf", 11)
	locked := filepath.Join(dir, "locked.pdf")

	d := NewDispatcher(nil, dir, quietLogger())
	_, err := d.Run(t.Context(), Encrypt{Password: "pw", KeyLength: 128}, []string{src}, locked)
	require.NoError(t, err)

	_, err = ResolveInputs(Decrypt{}, []string{locked + ":nope"})
	require.ErrorIs(t, err, ErrAuthentication)

	in, err := ResolveInputs(Decrypt{}, []string{locked + ":pw"})
	require.NoError(t, err)
	assert.True(t, in.Documents[0].Encrypted())
	require.NoError(t, in.Close())
}
