package autocomplete

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/riotx/riotx/internal/text"
)

type segment struct {
	Text string `json:"text"`
	Pill *Item  `json:"pill,omitempty"`
}

type encodedBuffer struct {
	Segments []segment `json:"segments"`
}

// EncodeBuffer serializes buf as JSON, keeping pills whose payload is an Item.
// Spans with any other payload are stored as plain text.
func EncodeBuffer(buf *text.Buffer) ([]byte, error) {
	var e encodedBuffer
	for _, seg := range buf.Segments() {
		out := segment{Text: seg.Text}
		if seg.Span != nil {
			if item, ok := seg.Span.Payload.(Item); ok {
				out.Pill = &item
			}
		}
		e.Segments = append(e.Segments, out)
	}
	return json.Marshal(e)
}

// DecodeBuffer restores a buffer written by EncodeBuffer.
func DecodeBuffer(data []byte) (*text.Buffer, error) {
	var e encodedBuffer
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	buf := text.NewBuffer("")
	for _, seg := range e.Segments {
		start := buf.Len()
		buf.Append(seg.Text)
		if seg.Pill != nil {
			buf.AttachSpan(start, start+utf8.RuneCountInString(seg.Text), *seg.Pill)
		}
	}
	return buf, nil
}
