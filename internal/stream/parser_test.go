package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/markis/bizcoach/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "[NEXT]Sounds good.[TRANSLATION]いいですね。[REFACTORED]That sounds great.[ANALYSIS]Good tone."

func TestProcessEmitsReadsInOrder(t *testing.T) {
	p := NewParser(context.Background())
	p.size = 3
	go p.Process(iotest.OneByteReader(strings.NewReader(body)))

	var b strings.Builder
	count := 0
	for c := range p.Chunks() {
		require.NoError(t, c.Error)
		assert.Len(t, c.Content, 1)
		b.WriteString(c.Content)
		count++
	}
	assert.Equal(t, body, b.String())
	assert.Equal(t, len(body), count)
}

func TestProcessReportsReadErrors(t *testing.T) {
	boom := errors.New("connection reset")
	p := NewParser(context.Background())
	go p.Process(io.MultiReader(strings.NewReader("[NEXT]Hel"), iotest.ErrReader(boom)))

	var got []Chunk
	for c := range p.Chunks() {
		got = append(got, c)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "[NEXT]Hel", got[0].Content)
	assert.ErrorIs(t, got[1].Error, boom)
}

func TestProcessStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewParser(ctx)
	go p.Process(strings.NewReader(body))

	var got []Chunk
	for c := range p.Chunks() {
		got = append(got, c)
	}
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Error, context.Canceled)
}

func TestFeedSegmentsTheWholeBody(t *testing.T) {
	p := NewParser(context.Background())
	p.size = 5
	go p.Process(strings.NewReader(body))

	seg := segment.New(segment.SchemaB, nil)
	require.NoError(t, Feed(p.Chunks(), seg))

	assert.Equal(t, segment.Snapshot{
		Next:       "Sounds good.",
		NextJP:     "いいですね。",
		Refactored: "That sounds great.",
		Analysis:   "Good tone.",
	}, seg.State())
}

func TestFeedKeepsPartialOutputOnError(t *testing.T) {
	chunks := make(chan Chunk, 3)
	chunks <- Chunk{Content: "[NEXT]Hello "}
	chunks <- Chunk{Content: "ther"}
	chunks <- Chunk{Error: io.ErrUnexpectedEOF}
	close(chunks)

	seg := segment.New(segment.SchemaB, nil)
	err := Feed(chunks, seg)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "Hello ther", seg.State().Next)
}
