package api

import "time"

const (
	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 15 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout; rendering large documents is slow
	ServerWriteTimeout = 5 * time.Minute

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second

	// DefaultFilePermissions for temp directory creation
	DefaultFilePermissions = 0755

	// MaxErrorLength truncates library errors returned to clients
	MaxErrorLength = 200

	// uploadField is the multipart field carrying the input files
	uploadField = "files"
)
