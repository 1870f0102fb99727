package operation

import "fmt"

// Option names a command line option by its long name.
type Option string

const (
	OptDecrypt            Option = "decrypt"
	OptExtractImages      Option = "extract-images"
	OptMerge              Option = "merge"
	OptSetPassword        Option = "set-password"
	OptLimitPermission    Option = "limit-permission"
	OptRemovePages        Option = "remove-pages"
	OptRotate             Option = "rotate"
	OptSplit              Option = "split"
	OptConvertImagesToPdf Option = "convert-images-to-pdf"
	OptConvertToImages    Option = "convert-to-images"

	OptKeyLength      Option = "set-key-length"
	OptDPI            Option = "set-dpi"
	OptCompressImages Option = "compress-images"
)

// PrimaryOptions are the operation selectors, in detection order.
var PrimaryOptions = []Option{
	OptDecrypt,
	OptExtractImages,
	OptMerge,
	OptSetPassword,
	OptLimitPermission,
	OptRemovePages,
	OptRotate,
	OptSplit,
	OptConvertImagesToPdf,
	OptConvertToImages,
}

var shortNames = map[Option]string{
	OptDecrypt:            "d",
	OptExtractImages:      "e",
	OptMerge:              "m",
	OptSetPassword:        "p",
	OptLimitPermission:    "l",
	OptRemovePages:        "R",
	OptRotate:             "r",
	OptSplit:              "s",
	OptConvertImagesToPdf: "T",
	OptConvertToImages:    "t",
	OptCompressImages:     "c",
}

// ParsePrimary returns the primary option called name.
func ParsePrimary(name string) (Option, error) {
	names := make([]string, len(PrimaryOptions))
	for i, o := range PrimaryOptions {
		if string(o) == name {
			return o, nil
		}
		names[i] = string(o)
	}
	return "", fmt.Errorf("%w: unknown operation %q%s", ErrNoOperationSelected, name, suggest(name, names))
}

// Short returns the single letter alias, or "" when the option has none.
func (o Option) Short() string { return shortNames[o] }

// Flag renders the option the way it is typed, preferring the short alias.
func (o Option) Flag() string {
	if s := o.Short(); s != "" {
		return "-" + s
	}
	return "--" + string(o)
}

// Flags is the raw command line state handed to Validate. Value fields are only meaningful
// for options marked as set.
type Flags struct {
	set map[Option]bool

	ExtractFormat  string
	Password       string
	KeyLength      int
	Permissions    []string
	RemovePages    string
	Degree         int
	Split          string
	ConvertFormat  string
	DPI            int
	CompressImages bool
}

// Mark records that opt was given explicitly, even with a zero value.
func (f *Flags) Mark(opt Option) {
	if f.set == nil {
		f.set = map[Option]bool{}
	}
	f.set[opt] = true
}

// IsSet reports whether opt was given.
func (f Flags) IsSet(opt Option) bool {
	return f.set[opt]
}
