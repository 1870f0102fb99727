package operation

import (
	"fmt"
	"slices"
	"strings"

	"pdftool/pdf"
)

// dependency ties a secondary option to the primaries it may be combined with.
type dependency struct {
	option   Option
	requires []Option
}

var dependencies = []dependency{
	{option: OptKeyLength, requires: []Option{OptSetPassword}},
	{option: OptDPI, requires: []Option{OptConvertToImages}},
	{option: OptCompressImages, requires: []Option{OptExtractImages, OptConvertToImages}},
}

// Validate turns the command line state into exactly one Request. It performs no I/O.
func Validate(f Flags) (Request, error) {
	var selected []Option
	for _, opt := range PrimaryOptions {
		if f.IsSet(opt) {
			selected = append(selected, opt)
		}
	}

	switch len(selected) {
	case 0:
		flags := make([]string, len(PrimaryOptions))
		for i, o := range PrimaryOptions {
			flags[i] = o.Flag()
		}
		return nil, fmt.Errorf("%w: you must use one option of %s", ErrNoOperationSelected, strings.Join(flags, " "))
	case 1:
	default:
		return nil, &ConflictError{Options: selected}
	}
	primary := selected[0]

	for _, dep := range dependencies {
		if f.IsSet(dep.option) && !slices.Contains(dep.requires, primary) {
			need := make([]string, len(dep.requires))
			for i, o := range dep.requires {
				need[i] = "'" + string(o) + "'"
			}
			return nil, fmt.Errorf("%w: option '%s' needs to be used with option %s",
				ErrDependentOptionMisuse, dep.option, strings.Join(need, " or "))
		}
	}

	switch primary {
	case OptDecrypt:
		return Decrypt{}, nil
	case OptMerge:
		return Merge{}, nil
	case OptConvertImagesToPdf:
		return ImagesToPdf{}, nil
	case OptSetPassword:
		return validateSetPassword(f)
	case OptLimitPermission:
		return validateLimitPermission(f)
	case OptRemovePages:
		pages, err := pdf.ParsePageNumbers(f.RemovePages)
		if err != nil {
			return nil, err
		}
		return RemovePages{Pages: pages}, nil
	case OptRotate:
		if f.Degree%90 != 0 {
			return nil, fmt.Errorf("%w: %d, rotation must be a multiple of 90", ErrInvalidDegree, f.Degree)
		}
		return Rotate{Degree: pdf.NormalizeRotation(f.Degree)}, nil
	case OptSplit:
		tokens, err := pdf.ParseSplitRanges(f.Split)
		if err != nil {
			return nil, err
		}
		return Split{Ranges: tokens}, nil
	case OptExtractImages:
		format, err := parseFormat(f.ExtractFormat)
		if err != nil {
			return nil, err
		}
		return ExtractImages{Format: format, Zip: f.CompressImages}, nil
	case OptConvertToImages:
		format, err := parseFormat(f.ConvertFormat)
		if err != nil {
			return nil, err
		}
		dpi := pdf.DefaultDPI
		if f.IsSet(OptDPI) {
			dpi = f.DPI
		}
		if dpi <= 0 {
			return nil, fmt.Errorf("%w: %d, dpi must be positive", ErrInvalidDPI, dpi)
		}
		return RasterizeToImages{Format: format, DPI: dpi, Zip: f.CompressImages}, nil
	}
	return nil, fmt.Errorf("%w: unhandled option %s", ErrNoOperationSelected, primary)
}

func validateSetPassword(f Flags) (Request, error) {
	keyLength := pdf.DefaultKeyLength
	if f.IsSet(OptKeyLength) {
		keyLength = f.KeyLength
	}
	if err := pdf.ValidKeyLength(keyLength); err != nil {
		return nil, err
	}
	return Encrypt{Password: f.Password, KeyLength: keyLength, Denied: pdf.PermissionSet{}}, nil
}

func validateLimitPermission(f Flags) (Request, error) {
	var values []string
	for _, v := range f.Permissions {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	if len(values) == 0 || len(values) > 3 {
		return nil, fmt.Errorf("%w: expected one to three of MODIFY, PRINT and EXTRACT, got %d",
			ErrInvalidPermission, len(values))
	}

	names := make([]string, len(pdf.Permissions))
	for i, p := range pdf.Permissions {
		names[i] = string(p)
	}

	denied := pdf.PermissionSet{}
	for _, v := range values {
		p, err := pdf.ParsePermission(v)
		if err != nil {
			return nil, fmt.Errorf("%w%s", err, suggest(v, names))
		}
		denied[p] = struct{}{}
	}
	return Encrypt{KeyLength: pdf.DefaultKeyLength, Denied: denied}, nil
}

func parseFormat(s string) (pdf.ImageFormat, error) {
	format, err := pdf.ParseImageFormat(s)
	if err != nil {
		return "", fmt.Errorf("%w%s", err, suggest(s, pdf.ImageFormats))
	}
	return format, nil
}
