package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultCLITimeout bounds a single external command
const DefaultCLITimeout = 60 * time.Second

// execCommandWithTimeout executes a command with a timeout derived from ctx
func execCommandWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultCLITimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s timed out after %v", name, timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err != nil {
		return output, fmt.Errorf("%s failed: %v", name, err)
	}

	return output, nil
}

func createTemp(dir, pattern string) (*os.File, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create temp directory: %v", ErrLibraryIO, err)
		}
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp file: %v", ErrLibraryIO, err)
	}
	return f, nil
}

func removeQuietly(path string) {
	_ = os.RemoveAll(path)
}
