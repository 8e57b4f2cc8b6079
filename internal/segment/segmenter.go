// Package segment splits a streamed, tag-delimited model response into named sections.
//
// The wire format is a single text stream of the form
//
//	<ignored preamble> TAG_1 content_1 TAG_2 content_2 ... TAG_n content_n
//
// where the tags are the literal strings of a Schema in fixed order. The last section runs
// to the end of the stream. Chunks may split anywhere, including inside a tag or inside a
// multi-byte rune.
package segment

import (
	"strings"
	"unicode/utf8"
)

// seekWindow bounds the buffer while waiting for the opening tag.
const seekWindow = 80

// Segmenter is the parse state for one streamed response. It is not safe for concurrent
// use; chunks must be fed in arrival order.
type Segmenter struct {
	schema    Schema
	onSection func(Snapshot)
	window    int

	buf    string
	cursor int
	closed bool

	raw   [numFields]strings.Builder
	state Snapshot
}

// New returns a Segmenter for schema. onSection, if non-nil, is called with a full
// snapshot every time a field's trimmed content changes.
func New(schema Schema, onSection func(Snapshot)) *Segmenter {
	return &Segmenter{
		schema:    schema,
		onSection: onSection,
		window:    max(seekWindow, schema.longestTag()),
		cursor:    -1,
	}
}

// Schema returns the schema the segmenter was built for.
func (s *Segmenter) Schema() Schema {
	return s.schema
}

// Cursor returns -1 before the opening tag has been seen, the index of the section being
// filled while streaming, and len(Sections) once the segmenter is closed.
func (s *Segmenter) Cursor() int {
	return s.cursor
}

// State returns the current snapshot. It is always safe to call.
func (s *Segmenter) State() Snapshot {
	return s.state
}

// ProcessChunk feeds the next piece of the stream.
func (s *Segmenter) ProcessChunk(chunk string) {
	if s.closed || chunk == "" || len(s.schema.Sections) == 0 {
		return
	}
	s.buf += chunk

	if s.cursor < 0 {
		open := s.schema.Sections[0].Tag
		i := strings.Index(s.buf, open)
		if i < 0 {
			if len(s.buf) > s.window {
				s.buf = s.buf[len(s.buf)-s.window:]
			}
			return
		}
		s.buf = s.buf[i+len(open):]
		s.cursor = 0
	}

	last := len(s.schema.Sections) - 1
	for s.cursor < last {
		end := s.schema.Sections[s.cursor+1].Tag
		p := strings.Index(s.buf, end)
		if p < 0 {
			// The tail may be the start of the end tag; hold it back.
			cut := runeStart(s.buf, len(s.buf)-min(len(end), len(s.buf)))
			s.flush(s.buf[:cut])
			s.buf = s.buf[cut:]
			return
		}
		s.flush(s.buf[:p])
		s.buf = s.buf[p+len(end):]
		s.cursor++
	}

	cut := completePrefix(s.buf)
	s.flush(s.buf[:cut])
	s.buf = s.buf[cut:]
}

// Close marks the end of the stream. Text still held back as lookahead belongs to the
// current section and is flushed. Later chunks are ignored.
func (s *Segmenter) Close() {
	if s.closed {
		return
	}
	if s.cursor >= 0 {
		s.flush(s.buf)
	}
	s.buf = ""
	s.cursor = len(s.schema.Sections)
	s.closed = true
}

func (s *Segmenter) flush(text string) {
	if text == "" || s.cursor < 0 || s.cursor >= len(s.schema.Sections) {
		return
	}
	f := s.schema.Sections[s.cursor].Field
	b := &s.raw[f]
	b.WriteString(text)

	// Trimmed values only grow by extension, so a length change is a content change.
	trimmed := strings.TrimSpace(b.String())
	if len(trimmed) == len(s.state.Get(f)) {
		return
	}
	s.state.set(f, trimmed)
	if s.onSection != nil {
		s.onSection(s.state)
	}
}

// runeStart moves i back to the start of the rune containing it. It looks back at most
// utf8.UTFMax-1 bytes, so runs of invalid continuation bytes are not held indefinitely.
func runeStart(s string, i int) int {
	for j := 0; j < utf8.UTFMax-1 && i > 0 && i < len(s) && !utf8.RuneStart(s[i]); j++ {
		i--
	}
	return i
}

// completePrefix returns the length of s without a trailing incomplete rune.
func completePrefix(s string) int {
	i := runeStart(s, len(s)-1)
	if i < 0 || utf8.FullRuneInString(s[i:]) {
		return len(s)
	}
	return i
}
