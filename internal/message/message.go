// Package message turns composer buffers into m.room.message event content.
package message

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/commands"
	"github.com/riotx/riotx/internal/text"
)

const (
	MsgTypeText   = "m.text"
	MsgTypeEmote  = "m.emote"
	FormatHTML    = "org.matrix.custom.html"
	PermalinkBase = "https://matrix.to/#/"

	shrug = "¯\\_(ツ)_/¯"
	lenny = "( ͡° ͜ʖ ͡°)"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrUnsupportedCommand = errors.New("command is not supported by this client")
)

// Content is the body of an m.room.message event.
type Content struct {
	MsgType       string `json:"msgtype"`
	Body          string `json:"body"`
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`
}

// Permalink returns the matrix.to link for an entity id.
func Permalink(id string) string {
	return PermalinkBase + id
}

// FromBuffer renders buf as a text message. Pills become matrix.to links in
// the formatted body; without pills only the plain body is set.
func FromBuffer(buf *text.Buffer) (Content, error) {
	return render(buf, MsgTypeText, "", true)
}

// Compose renders buf, applying any leading slash command the message
// itself carries. Commands that act on the room rather than produce a message
// return ErrUnsupportedCommand along with the parsed command.
func Compose(buf *text.Buffer, registry commands.Registry) (Content, commands.Command, error) {
	cmd, _, ok := registry.Parse(buf.String())
	if !ok {
		c, err := FromBuffer(buf)
		return c, commands.Command{}, err
	}

	body := buf.Clone()
	prefix := utf8.RuneCountInString(cmd.Trigger())
	body.Delete(0, prefix)
	for body.Len() > 0 {
		if r, _ := body.RuneAt(0); r != ' ' {
			break
		}
		body.Delete(0, 1)
	}

	var (
		c   Content
		err error
	)
	switch cmd.Name {
	case commands.EmoteCommand:
		c, err = render(body, MsgTypeEmote, "", true)
	case commands.ShrugCommand:
		c, err = render(body, MsgTypeText, shrug, true)
	case commands.LennyCommand:
		c, err = render(body, MsgTypeText, lenny, true)
	case commands.PlainCommand:
		c, err = render(body, MsgTypeText, "", false)
	case commands.SpoilerCommand:
		c, err = spoiler(body)
	default:
		return Content{}, cmd, fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Trigger())
	}
	return c, cmd, err
}

func render(buf *text.Buffer, msgType, prefix string, formatted bool) (Content, error) {
	if strings.TrimSpace(buf.String()) == "" && prefix == "" {
		return Content{}, ErrEmptyMessage
	}

	var plain, rich strings.Builder
	if prefix != "" {
		plain.WriteString(prefix)
		rich.WriteString(html.EscapeString(prefix))
		if buf.Len() > 0 {
			plain.WriteString(" ")
			rich.WriteString(" ")
		}
	}

	hasPill := false
	for _, seg := range buf.Segments() {
		plain.WriteString(seg.Text)
		item, ok := pillItem(seg)
		if !ok {
			rich.WriteString(escape(seg.Text))
			continue
		}
		hasPill = true
		fmt.Fprintf(&rich, `<a href="%s">%s</a>`,
			html.EscapeString(Permalink(item.LinkID())),
			escape(seg.Text))
	}

	c := Content{MsgType: msgType, Body: strings.TrimRight(plain.String(), " ")}
	if formatted && hasPill {
		c.Format = FormatHTML
		c.FormattedBody = strings.TrimRight(rich.String(), " ")
	}
	return c, nil
}

func spoiler(buf *text.Buffer) (Content, error) {
	inner, err := render(buf, MsgTypeText, "", true)
	if err != nil {
		return Content{}, err
	}
	rich := inner.FormattedBody
	if rich == "" {
		rich = escape(inner.Body)
	}
	return Content{
		MsgType:       MsgTypeText,
		Body:          "[Spoiler] " + inner.Body,
		Format:        FormatHTML,
		FormattedBody: "<span data-mx-spoiler>" + rich + "</span>",
	}, nil
}

func pillItem(seg text.Segment) (autocomplete.Item, bool) {
	if seg.Span == nil {
		return autocomplete.Item{}, false
	}
	item, ok := seg.Span.Payload.(autocomplete.Item)
	if !ok || !item.Kind.IsPill() {
		return autocomplete.Item{}, false
	}
	return item, true
}

func escape(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
