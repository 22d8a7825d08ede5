package entity

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// ButtonStyle is the visual style of a button. Values match the wire format.
type ButtonStyle int

const (
	ButtonStylePrimary   ButtonStyle = 1
	ButtonStyleSecondary ButtonStyle = 2
	ButtonStyleSuccess   ButtonStyle = 3
	ButtonStyleDanger    ButtonStyle = 4
	ButtonStyleLink      ButtonStyle = 5
)

// String returns the style name.
func (s ButtonStyle) String() string {
	switch s {
	case ButtonStylePrimary:
		return "primary"
	case ButtonStyleSecondary:
		return "secondary"
	case ButtonStyleSuccess:
		return "success"
	case ButtonStyleDanger:
		return "danger"
	case ButtonStyleLink:
		return "link"
	default:
		return "unknown"
	}
}

// IsValid reports whether s is one of the known styles.
func (s ButtonStyle) IsValid() bool {
	return s >= ButtonStylePrimary && s <= ButtonStyleLink
}

// Component wire type codes.
const (
	ComponentTypeActionRow = 1
	ComponentTypeButton    = 2
)

const (
	// MaxButtonsPerRow is the platform limit of buttons in one action row.
	MaxButtonsPerRow = 5
	// MaxRowsPerMessage is the platform limit of action rows on one message.
	MaxRowsPerMessage = 5
	maxLabelLength    = 80
)

var customIDPattern = regexp.MustCompile(`^[\w-]{1,100}$`)

// Component is an interactive element sent alongside a message.
// The set of variants is closed: ActionRow and Button.
type Component interface {
	componentType() int
}

// Emoji is an optional icon shown on a button.
type Emoji struct {
	ID       string
	Name     string
	Animated bool
}

// Button is a clickable component. Build it with NewButton or NewLinkButton.
type Button struct {
	Style    ButtonStyle
	Label    string
	Emoji    *Emoji
	CustomID string
	URL      string
	Disabled bool
}

func (Button) componentType() int { return ComponentTypeButton }

// ButtonOption customizes a button under construction.
type ButtonOption func(*Button)

// WithEmoji attaches an emoji to the button.
func WithEmoji(emoji Emoji) ButtonOption {
	return func(b *Button) {
		e := emoji
		b.Emoji = &e
	}
}

// WithDisabled sets the disabled flag at construction time.
func WithDisabled(disabled bool) ButtonOption {
	return func(b *Button) {
		b.Disabled = disabled
	}
}

// NewButton creates a non-link button identified by customID.
func NewButton(style ButtonStyle, label, customID string, opts ...ButtonOption) (Button, error) {
	b := Button{Style: style, Label: label, CustomID: customID}
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.Validate(); err != nil {
		return Button{}, err
	}
	return b, nil
}

// NewLinkButton creates a button that opens url and never produces click events.
func NewLinkButton(label, url string, opts ...ButtonOption) (Button, error) {
	b := Button{Style: ButtonStyleLink, Label: label, URL: url}
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.Validate(); err != nil {
		return Button{}, err
	}
	return b, nil
}

// Validate checks the button invariants.
func (b Button) Validate() error {
	if !b.Style.IsValid() {
		return newValidationError(ErrInvalidStyle, fmt.Sprintf("unknown button style %d", b.Style))
	}

	if n := utf8.RuneCountInString(b.Label); n < 1 || n > maxLabelLength {
		return newValidationError(ErrInvalidLabel, fmt.Sprintf("label must be 1-%d characters, got %d", maxLabelLength, n))
	}

	if b.IsLink() {
		if b.CustomID != "" {
			return newValidationError(ErrURLStyleMismatch, "link buttons cannot have a custom_id")
		}
		if b.URL == "" {
			return newValidationError(ErrMissingURL, "link buttons must have a url")
		}
		return nil
	}

	if b.URL != "" {
		return newValidationError(ErrURLStyleMismatch, "urls are only supported in link buttons")
	}
	if b.CustomID == "" {
		return newValidationError(ErrMissingCustomID, "non-link buttons must have a custom_id")
	}
	if !customIDPattern.MatchString(b.CustomID) {
		return newValidationError(ErrInvalidCustomID, `custom_id must match [\w-]{1,100}`)
	}
	return nil
}

// IsLink reports whether the button is a link button.
func (b Button) IsLink() bool {
	return b.Style == ButtonStyleLink
}

// WithStyle returns a copy of b restyled to style.
func (b Button) WithStyle(style ButtonStyle) Button {
	b.Style = style
	return b
}

// WithDisabled returns a copy of b with the disabled flag set.
func (b Button) WithDisabled(disabled bool) Button {
	b.Disabled = disabled
	return b
}

// ActionRow is an ordered row of buttons.
type ActionRow struct {
	Buttons []Button
}

func (ActionRow) componentType() int { return ComponentTypeActionRow }

// NewActionRow creates a row of 1 to MaxButtonsPerRow buttons.
// Each button is validated again so zero-value buttons are rejected.
func NewActionRow(buttons ...Button) (ActionRow, error) {
	if len(buttons) < 1 || len(buttons) > MaxButtonsPerRow {
		return ActionRow{}, newValidationError(ErrRowSize,
			fmt.Sprintf("action row must hold 1-%d buttons, got %d", MaxButtonsPerRow, len(buttons)))
	}
	for _, b := range buttons {
		if err := b.Validate(); err != nil {
			return ActionRow{}, err
		}
	}
	row := ActionRow{Buttons: make([]Button, len(buttons))}
	copy(row.Buttons, buttons)
	return row, nil
}

// MustActionRow is like NewActionRow but panics on invalid input.
// Intended for fixed button sets built at init time.
func MustActionRow(buttons ...Button) ActionRow {
	row, err := NewActionRow(buttons...)
	if err != nil {
		panic(err)
	}
	return row
}

// Map returns a copy of the row with fn applied to every button.
func (r ActionRow) Map(fn func(Button) Button) ActionRow {
	out := ActionRow{Buttons: make([]Button, len(r.Buttons))}
	for i, b := range r.Buttons {
		out.Buttons[i] = fn(b)
	}
	return out
}

// ValidateRows checks a message's rows: 1 to MaxRowsPerMessage valid rows
// whose non-link buttons have distinct custom IDs.
func ValidateRows(rows []ActionRow) error {
	if len(rows) < 1 || len(rows) > MaxRowsPerMessage {
		return newValidationError(ErrRowCount,
			fmt.Sprintf("a message must hold 1-%d action rows, got %d", MaxRowsPerMessage, len(rows)))
	}
	seen := make(map[string]struct{})
	for _, row := range rows {
		if _, err := NewActionRow(row.Buttons...); err != nil {
			return err
		}
		for _, b := range row.Buttons {
			if b.IsLink() {
				continue
			}
			if _, dup := seen[b.CustomID]; dup {
				return newValidationError(ErrDuplicateID, fmt.Sprintf("custom_id %q is used twice", b.CustomID))
			}
			seen[b.CustomID] = struct{}{}
		}
	}
	return nil
}

// ToWire serializes a component to the platform wire mapping.
func ToWire(c Component) map[string]any {
	switch v := c.(type) {
	case ActionRow:
		children := make([]map[string]any, 0, len(v.Buttons))
		for _, b := range v.Buttons {
			children = append(children, ToWire(b))
		}
		return map[string]any{
			"type":       ComponentTypeActionRow,
			"components": children,
		}
	case Button:
		m := map[string]any{
			"type":     ComponentTypeButton,
			"style":    int(v.Style),
			"label":    v.Label,
			"disabled": v.Disabled,
		}
		if v.Emoji != nil {
			emoji := map[string]any{"name": v.Emoji.Name}
			if v.Emoji.ID != "" {
				emoji["id"] = v.Emoji.ID
			}
			if v.Emoji.Animated {
				emoji["animated"] = true
			}
			m["emoji"] = emoji
		}
		if v.IsLink() {
			m["url"] = v.URL
		} else {
			m["custom_id"] = v.CustomID
		}
		return m
	default:
		panic(fmt.Sprintf("entity: unknown component %T", c))
	}
}

// ToWireList serializes a list of components.
func ToWireList(components []Component) []map[string]any {
	out := make([]map[string]any, 0, len(components))
	for _, c := range components {
		out = append(out, ToWire(c))
	}
	return out
}
