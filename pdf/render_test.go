package pdf

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellRenderer runs script with sh; $0 is arg0 and the renderer arguments follow, so the
// output prefix is ${10}.
func shellRenderer(t *testing.T, script, arg0 string, timeout time.Duration) *CommandRasterizer {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return NewCommandRasterizer([]string{"sh", "-c", script, arg0}, timeout, t.TempDir(), nil)
}

func TestNewCommandRasterizerDefaults(t *testing.T) {
	r := NewCommandRasterizer(nil, time.Second, "", nil)
	assert.Equal(t, DefaultRendererCommand, r.Command)
}

func TestCommandRasterizerRendersPage(t *testing.T) {
	dir := t.TempDir()
	page := writePNG(t, dir, 7, 3)
	argsFile := filepath.Join(dir, "args")

	r := shellRenderer(t, `echo "$@" > `+argsFile+` && cp "$0" "${10}.png"`, page, 5*time.Second)
	img, err := r.RenderPage(context.Background(), "doc.pdf", 4, 150)
	require.NoError(t, err)
	assert.Equal(t, 7, img.Bounds().Dx())

	out, err := exec.Command("cat", argsFile).Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "-r 150 -png -f 4 -l 4 -singlefile doc.pdf")
}

func TestCommandRasterizerFailures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
	}{
		{name: "command fails", script: "echo broken >&2; exit 3", timeout: 5 * time.Second},
		{name: "no output", script: "exit 0", timeout: 5 * time.Second},
		{name: "timeout", script: "exec sleep 5", timeout: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := shellRenderer(t, tt.script, "render", tt.timeout)
			_, err := r.RenderPage(context.Background(), "doc.pdf", 1, 72)
			require.ErrorIs(t, err, ErrLibraryIO)
		})
	}
}

func TestCommandRasterizerMissingExecutable(t *testing.T) {
	r := NewCommandRasterizer([]string{"pdftool-no-such-renderer"}, time.Second, t.TempDir(), nil)
	_, err := r.RenderPage(context.Background(), "doc.pdf", 1, 72)
	require.ErrorIs(t, err, ErrLibraryIO)
}
