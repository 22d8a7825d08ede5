package entity

// OutgoingMessage is what a session asks the platform to render.
// An edit with no components removes every component from the message.
type OutgoingMessage struct {
	Content    string
	Embed      *Embed
	Components []Component
}

// HasComponents reports whether the message carries any component.
func (m OutgoingMessage) HasComponents() bool {
	return len(m.Components) > 0
}

// PageMessage renders a page with the given components.
func PageMessage(p Page, components []Component) OutgoingMessage {
	return OutgoingMessage{
		Content:    p.Content,
		Embed:      p.Embed,
		Components: components,
	}
}

// WirePayload builds the JSON body for a create or edit message request.
// Components are always present so an edit without them clears the row.
func (m OutgoingMessage) WirePayload() map[string]any {
	payload := map[string]any{
		"components":       ToWireList(m.Components),
		"allowed_mentions": map[string]any{"parse": []string{}},
	}
	if m.Embed != nil {
		payload["embeds"] = []*Embed{m.Embed}
		payload["content"] = ""
	} else {
		payload["content"] = m.Content
		payload["embeds"] = []*Embed{}
	}
	return payload
}
