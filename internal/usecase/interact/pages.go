package interact

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// Page template placeholders accepted by FormatPages.
const (
	PlaceholderCurrentPage        = "{current_page}"
	PlaceholderCurrentPagePlusOne = "{current_page_plus_one}"
	PlaceholderTotalPages         = "{total_pages}"
	PlaceholderContent            = "{content}"
)

// ContentOptions controls how long text is split into paginator pages.
type ContentOptions struct {
	MaxChars int    // default 2000
	MinChars int    // default 1500
	Splitter string // default " "
	Format   string // default "{content}"
	Timeout  time.Duration
}

func (o *ContentOptions) applyDefaults() {
	if o.MaxChars == 0 {
		o.MaxChars = 2000
	}
	if o.MinChars == 0 && o.MaxChars > 1500 {
		o.MinChars = 1500
	}
	if o.Splitter == "" {
		o.Splitter = " "
	}
	if o.Format == "" {
		o.Format = PlaceholderContent
	}
}

// NewPaginatorFromContent splits content into text pages and builds a
// paginator over them. Lengths are measured on the content only, before the
// format template is applied.
func (rt *Runtime) NewPaginatorFromContent(inv entity.Invocation, content string, opts ContentOptions) (*Paginator, error) {
	opts.applyDefaults()

	chunks, err := SplitContent(content, opts.Splitter, opts.MaxChars, opts.MinChars)
	if err != nil {
		return nil, err
	}

	formatted := FormatPages(chunks, opts.Format)
	pages := make([]entity.Page, len(formatted))
	for i, text := range formatted {
		pages[i] = entity.TextPage(text)
	}

	return rt.NewPaginator(inv, pages, PaginatorOptions{Timeout: opts.Timeout})
}

// SplitContent packs splitter-delimited chunks of content into pages.
//
// Chunks are appended greedily, joined by splitter, while the page stays
// within maxChars. When the next chunk would overflow: a page shorter than
// minChars is topped up to exactly minChars with a prefix of that chunk and
// the rest of the chunk starts the next page; otherwise the page is
// committed and the chunk starts the next page. The last page is always
// committed, even if short or empty. Lengths are counted in runes.
func SplitContent(content, splitter string, maxChars, minChars int) ([]string, error) {
	switch {
	case splitter == "":
		return nil, fmt.Errorf("%w: splitter must not be empty", entity.ErrInvalidSplit)
	case maxChars <= 0:
		return nil, fmt.Errorf("%w: max chars must be positive, got %d", entity.ErrInvalidSplit, maxChars)
	case minChars < 0:
		return nil, fmt.Errorf("%w: min chars must not be negative, got %d", entity.ErrInvalidSplit, minChars)
	case minChars >= maxChars:
		return nil, fmt.Errorf("%w: min chars (%d) must be less than max chars (%d)", entity.ErrInvalidSplit, minChars, maxChars)
	}

	sepLen := utf8.RuneCountInString(splitter)

	var pages []string
	var current strings.Builder
	currentLen := 0

	for _, chunk := range strings.Split(content, splitter) {
		chunkLen := utf8.RuneCountInString(chunk)

		joinLen := 0
		if currentLen > 0 {
			joinLen = sepLen
		}

		if currentLen+joinLen+chunkLen <= maxChars {
			if joinLen > 0 {
				current.WriteString(splitter)
			}
			current.WriteString(chunk)
			currentLen += joinLen + chunkLen
			continue
		}

		if currentLen < minChars {
			// Borrow just enough of the chunk to reach minChars.
			borrow := max(0, minChars-currentLen-joinLen)
			head, tail := splitRunes(chunk, borrow)
			if joinLen > 0 {
				current.WriteString(splitter)
			}
			current.WriteString(head)
			pages = append(pages, current.String())

			current.Reset()
			current.WriteString(tail)
			currentLen = chunkLen - borrow
			continue
		}

		pages = append(pages, current.String())
		current.Reset()
		current.WriteString(chunk)
		currentLen = chunkLen
	}

	pages = append(pages, current.String())
	return pages, nil
}

// splitRunes cuts s after n runes.
func splitRunes(s string, n int) (string, string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

// FormatPages applies a page template to every page. The template may use
// {current_page} (0-indexed), {current_page_plus_one}, {total_pages} and
// {content}.
func FormatPages(pages []string, format string) []string {
	total := strconv.Itoa(len(pages))
	out := make([]string, len(pages))
	for i, page := range pages {
		r := strings.NewReplacer(
			PlaceholderCurrentPagePlusOne, strconv.Itoa(i+1),
			PlaceholderCurrentPage, strconv.Itoa(i),
			PlaceholderTotalPages, total,
			PlaceholderContent, page,
		)
		out[i] = r.Replace(format)
	}
	return out
}
