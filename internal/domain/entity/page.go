package entity

// EmbedField is a name/value pair rendered inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text shown below an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Embed is a rich message body. Field names follow the platform wire format.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// Page is one screen of a paginator: either text content or an embed.
type Page struct {
	Content string
	Embed   *Embed
}

// TextPage creates a plain text page.
func TextPage(content string) Page {
	return Page{Content: content}
}

// EmbedPage creates a rich embed page.
func EmbedPage(embed Embed) Page {
	e := embed
	return Page{Embed: &e}
}

// IsEmbed reports whether the page is an embed page.
func (p Page) IsEmbed() bool {
	return p.Embed != nil
}

// Validate checks that exactly one of content and embed is used.
func (p Page) Validate() error {
	if p.Embed != nil && p.Content != "" {
		return ErrInvalidPage
	}
	return nil
}

// ValidatePages checks that pages is non-empty and of a single kind.
func ValidatePages(pages []Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	embed := pages[0].IsEmbed()
	for _, p := range pages {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.IsEmbed() != embed {
			return ErrMixedPages
		}
	}
	return nil
}
