package interact

import (
	"context"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/entity"
)

// Navigation button custom IDs.
const (
	NavFirst    = "first"
	NavPrevious = "previous"
	NavStop     = "stop"
	NavNext     = "next"
	NavLast     = "last"
)

var navLabels = []struct {
	id    string
	label string
}{
	{NavFirst, "<<"},
	{NavPrevious, "<"},
	{NavStop, "X"},
	{NavNext, ">"},
	{NavLast, ">>"},
}

// PaginatorOptions customizes a paginator.
type PaginatorOptions struct {
	Timeout time.Duration
}

// Paginator shows one page at a time with first/previous/stop/next/last
// navigation.
type Paginator struct {
	rt    *Runtime
	inv   entity.Invocation
	pages []entity.Page
	opts  PaginatorOptions

	done      bool
	index     int
	timedOut  bool
	messageID string
}

// NewPaginator builds a paginator over pages, which must be non-empty and
// all of one kind (text or embed).
func (rt *Runtime) NewPaginator(inv entity.Invocation, pages []entity.Page, opts PaginatorOptions) (*Paginator, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := entity.ValidatePages(pages); err != nil {
		return nil, err
	}

	copied := make([]entity.Page, len(pages))
	copy(copied, pages)

	return &Paginator{
		rt:    rt,
		inv:   inv,
		pages: copied,
		opts:  opts,
	}, nil
}

// Run shows the first page and blocks until the user stops the paginator or
// the timeout passes. It returns true if the timeout ended the session.
func (p *Paginator) Run(ctx context.Context) (bool, error) {
	if p.done {
		return false, ErrSessionDone
	}
	p.done = true

	record := entity.NewSessionRecord(entity.SessionKindPaginator, p.inv)
	p.rt.started(ctx, record)

	l := p.rt.newLoop(entity.SessionKindPaginator, p.inv, p.opts.Timeout)
	messageID, err := l.run(ctx, p.render(false), func(click *entity.InteractionEvent) transition {
		if click == nil {
			p.timedOut = true
			return transition{render: p.render(true), terminal: true}
		}
		if click.CustomID == NavStop {
			return transition{render: p.render(true), terminal: true}
		}

		next, ok := Navigate(click.CustomID, p.index, len(p.pages))
		if !ok {
			return transition{ignore: true}
		}
		p.index = next
		return transition{render: p.render(false)}
	})
	p.messageID = messageID
	if err != nil {
		return false, err
	}

	record.MessageID = messageID
	record.PageIndex = p.index
	outcome := entity.OutcomeStopped
	if p.timedOut {
		outcome = entity.OutcomeTimedOut
	}
	p.rt.finish(ctx, record.Finish(outcome, p.timedOut))

	return p.timedOut, nil
}

// render draws the current page, with navigation unless final.
func (p *Paginator) render(final bool) entity.OutgoingMessage {
	var components []entity.Component
	if !final {
		components = []entity.Component{NavigationRow(p.index, len(p.pages))}
	}
	return entity.PageMessage(p.pages[p.index], components)
}

// Index returns the index of the page currently shown.
func (p *Paginator) Index() int {
	return p.index
}

// PageCount returns the number of pages.
func (p *Paginator) PageCount() int {
	return len(p.pages)
}

// TimedOut reports whether the timeout, rather than the stop button, ended
// the session.
func (p *Paginator) TimedOut() bool {
	return p.timedOut
}

// MessageID returns the paginator's message ID once it has been sent.
func (p *Paginator) MessageID() string {
	return p.messageID
}

// Navigate applies a navigation action to index over count pages. The
// result is always within [0, count-1]. ok is false for stop and unknown
// actions.
func Navigate(action string, index, count int) (next int, ok bool) {
	last := count - 1
	switch action {
	case NavFirst:
		return 0, true
	case NavPrevious:
		return max(0, index-1), true
	case NavNext:
		return min(last, index+1), true
	case NavLast:
		return last, true
	default:
		return index, false
	}
}

// NavigationRow builds the five navigation buttons for index over count
// pages. Buttons that cannot move are disabled.
func NavigationRow(index, count int) entity.ActionRow {
	atStart := index <= 0
	atEnd := index >= count-1

	buttons := make([]entity.Button, 0, len(navLabels))
	for _, nav := range navLabels {
		b := entity.Button{
			Style:    entity.ButtonStyleSecondary,
			Label:    nav.label,
			CustomID: nav.id,
		}
		switch nav.id {
		case NavStop:
			b.Style = entity.ButtonStyleDanger
		case NavFirst, NavPrevious:
			b.Disabled = atStart
		case NavNext, NavLast:
			b.Disabled = atEnd
		}
		buttons = append(buttons, b)
	}
	return entity.MustActionRow(buttons...)
}
