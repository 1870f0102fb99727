package pdf

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var whitespace = regexp.MustCompile(`\s`)

// PageRange is an inclusive span of 1-based page numbers.
type PageRange struct {
	Start int
	End   int
}

// String renders the range in pdfcpu page selection syntax.
func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Len returns the number of pages covered by the range.
func (r PageRange) Len() int {
	return r.End - r.Start + 1
}

// SplitToken is a parsed split range whose open ends are not yet bound to a page count.
// A zero Start or End means the bound was omitted.
type SplitToken struct {
	Token string
	Start int
	End   int
}

// Resolve binds the open ends of the token to the document and checks bounds.
// An omitted start is page 1, an omitted end is the last page.
func (t SplitToken) Resolve(totalPages int) (PageRange, error) {
	r := PageRange{Start: t.Start, End: t.End}
	if r.Start == 0 {
		r.Start = 1
	}
	if r.End == 0 {
		r.End = totalPages
	}
	if r.Start > totalPages || r.End > totalPages {
		return PageRange{}, fmt.Errorf("%w: %q exceeds total pages (%d)", ErrInvalidRange, t.Token, totalPages)
	}
	if r.Start > r.End {
		return PageRange{}, fmt.Errorf("%w: %q starts after it ends", ErrInvalidRange, t.Token)
	}
	return r, nil
}

// ParsePageNumbers parses a comma separated list of page numbers such as "1,3,5".
// Whitespace is ignored. Ranges are not accepted here.
func ParsePageNumbers(pages string) ([]int, error) {
	pages = whitespace.ReplaceAllString(pages, "")
	if pages == "" {
		return nil, fmt.Errorf("%w: empty page specification", ErrInvalidRange)
	}

	parts := strings.Split(pages, ",")
	pageList := make([]int, 0, len(parts))
	for _, part := range parts {
		pageNum, err := strconv.Atoi(part)
		if err != nil || pageNum < 1 {
			return nil, fmt.Errorf("%w: invalid page number %q", ErrInvalidRange, part)
		}
		pageList = append(pageList, pageNum)
	}
	return pageList, nil
}

// ValidatePageNumbers checks if all page numbers are valid for a given total number of pages
func ValidatePageNumbers(pages []int, totalPages int) error {
	for _, page := range pages {
		if page < 1 {
			return fmt.Errorf("%w: page numbers must be positive, got %d", ErrInvalidRange, page)
		}
		if page > totalPages {
			return fmt.Errorf("%w: page %d exceeds total pages (%d)", ErrInvalidRange, page, totalPages)
		}
	}
	return nil
}

// PlanRemoval returns the distinct page numbers in descending order, so that removing
// them one by one never shifts a page that is still to be removed.
func PlanRemoval(pages []int) []int {
	plan := make([]int, len(pages))
	copy(plan, pages)
	sort.Sort(sort.Reverse(sort.IntSlice(plan)))

	deduped := plan[:0]
	for i, page := range plan {
		if i == 0 || page != plan[i-1] {
			deduped = append(deduped, page)
		}
	}
	return deduped
}

// ParseSplitRanges parses a split specification such as "1-3,5,6-,-2".
// Each comma separated token is one of N, N-M, N- or -M. Tokens are kept in input order,
// duplicates and overlaps included.
func ParseSplitRanges(spec string) ([]SplitToken, error) {
	spec = whitespace.ReplaceAllString(spec, "")
	if spec == "" {
		return nil, fmt.Errorf("%w: empty split specification", ErrInvalidRange)
	}

	var tokens []SplitToken
	for _, part := range strings.Split(spec, ",") {
		tok, err := parseSplitToken(part)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func parseSplitToken(part string) (SplitToken, error) {
	tok := SplitToken{Token: part}
	invalid := func() (SplitToken, error) {
		return SplitToken{}, fmt.Errorf("%w: %q", ErrInvalidRange, part)
	}

	switch strings.Count(part, "-") {
	case 0:
		page, err := parsePage(part)
		if err != nil {
			return invalid()
		}
		tok.Start, tok.End = page, page
	case 1:
		startStr, endStr, _ := strings.Cut(part, "-")
		if startStr == "" && endStr == "" {
			return invalid()
		}
		var err error
		if startStr != "" {
			if tok.Start, err = parsePage(startStr); err != nil {
				return invalid()
			}
		}
		if endStr != "" {
			if tok.End, err = parsePage(endStr); err != nil {
				return invalid()
			}
		}
		if tok.Start != 0 && tok.End != 0 && tok.Start > tok.End {
			return SplitToken{}, fmt.Errorf("%w: %q starts after it ends", ErrInvalidRange, part)
		}
	default:
		return invalid()
	}
	return tok, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d is not positive", n)
	}
	return n, nil
}

// ResolveSplitRanges binds every token to the document's page count.
func ResolveSplitRanges(tokens []SplitToken, totalPages int) ([]PageRange, error) {
	ranges := make([]PageRange, 0, len(tokens))
	for _, tok := range tokens {
		r, err := tok.Resolve(totalPages)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// NormalizeRotation maps any multiple of 90 into [0, 360).
func NormalizeRotation(degree int) int {
	return ((degree % 360) + 360) % 360
}
