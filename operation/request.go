package operation

import "pdftool/pdf"

// InputClass is the kind of file an operation reads.
type InputClass int

const (
	ClassPDF InputClass = iota
	ClassImage
)

func (c InputClass) String() string {
	if c == ClassImage {
		return "image"
	}
	return "PDF"
}

// Request is one fully validated operation. The concrete types below are the only implementations.
type Request interface {
	// Name is the primary option that selected the operation.
	Name() Option
	// Inputs reports the accepted input class and how many inputs are allowed.
	// most is 0 when there is no upper bound.
	Inputs() (class InputClass, least, most int)

	isRequest()
}

type Decrypt struct{}

type Encrypt struct {
	Password  string
	KeyLength int
	Denied    pdf.PermissionSet
}

type Merge struct{}

type RemovePages struct {
	Pages []int
}

type Rotate struct {
	// Degree is normalized into [0, 360).
	Degree int
}

type Split struct {
	Ranges []pdf.SplitToken
}

type RasterizeToImages struct {
	Format pdf.ImageFormat
	DPI    int
	Zip    bool
}

type ImagesToPdf struct{}

type ExtractImages struct {
	Format pdf.ImageFormat
	Zip    bool
}

// Restricting reports whether the request limits permissions instead of setting a password.
func (r Encrypt) Restricting() bool { return r.Password == "" && len(r.Denied) > 0 }

func (Decrypt) Name() Option { return OptDecrypt }
func (r Encrypt) Name() Option {
	if r.Restricting() {
		return OptLimitPermission
	}
	return OptSetPassword
}
func (Merge) Name() Option             { return OptMerge }
func (RemovePages) Name() Option       { return OptRemovePages }
func (Rotate) Name() Option            { return OptRotate }
func (Split) Name() Option             { return OptSplit }
func (RasterizeToImages) Name() Option { return OptConvertToImages }
func (ImagesToPdf) Name() Option       { return OptConvertImagesToPdf }
func (ExtractImages) Name() Option     { return OptExtractImages }

func (Decrypt) Inputs() (InputClass, int, int)           { return ClassPDF, 1, 1 }
func (Encrypt) Inputs() (InputClass, int, int)           { return ClassPDF, 1, 1 }
func (Merge) Inputs() (InputClass, int, int)             { return ClassPDF, 2, 0 }
func (RemovePages) Inputs() (InputClass, int, int)       { return ClassPDF, 1, 1 }
func (Rotate) Inputs() (InputClass, int, int)            { return ClassPDF, 1, 1 }
func (Split) Inputs() (InputClass, int, int)             { return ClassPDF, 1, 1 }
func (RasterizeToImages) Inputs() (InputClass, int, int) { return ClassPDF, 1, 1 }
func (ImagesToPdf) Inputs() (InputClass, int, int)       { return ClassImage, 1, 0 }
func (ExtractImages) Inputs() (InputClass, int, int)     { return ClassPDF, 1, 1 }

func (Decrypt) isRequest()           {}
func (Encrypt) isRequest()           {}
func (Merge) isRequest()             {}
func (RemovePages) isRequest()       {}
func (Rotate) isRequest()            {}
func (Split) isRequest()             {}
func (RasterizeToImages) isRequest() {}
func (ImagesToPdf) isRequest()       {}
func (ExtractImages) isRequest()     {}
