package pdf

const (
	// DefaultKeyLength is the encryption key length used when none is given
	DefaultKeyLength = 256

	// DefaultDPI is the rasterization resolution used when none is given
	DefaultDPI = 300

	// DefaultFilePermissions for every file written by an operation
	DefaultFilePermissions = 0644

	// maxResourceDepth bounds the Parent chain followed when looking up inherited page resources
	maxResourceDepth = 32
)

// Permission bits of the /P entry, ISO 32000-1 table 22.
const (
	permAll        = 0xFFFF
	permPrint      = 0x0004
	permModify     = 0x0008
	permExtract    = 0x0010
	permPrintHighQ = 0x0800
)
