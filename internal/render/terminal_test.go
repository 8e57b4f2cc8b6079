package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderChunks(t *testing.T, r *TerminalRenderer, schema segment.Schema, chunks ...string) {
	t.Helper()
	seg := segment.New(schema, r.Update)
	r.Start()
	for _, c := range chunks {
		seg.ProcessChunk(c)
	}
	seg.Close()
	require.NoError(t, r.Finish())
}

func TestPlainOutputFollowsSchemaOrder(t *testing.T) {
	var out bytes.Buffer
	r, err := NewTerminalRenderer(segment.SchemaB, config.Default().Render, true, &out)
	require.NoError(t, err)

	renderChunks(t, r, segment.SchemaB,
		"[NEXT]Sou", "nds good.[TRANSL", "ATION]いいですね。",
		"[REFACTORED]That sounds great.[ANALYSIS]Good tone.")

	assert.Equal(t, "Partner\nSounds good.\n\n"+
		"Partner (日本語)\nいいですね。\n\n"+
		"Better phrasing\nThat sounds great.\n\n"+
		"Analysis\nGood tone.\n", out.String())
}

func TestPlainOutputSchemaA(t *testing.T) {
	var out bytes.Buffer
	r, err := NewTerminalRenderer(segment.SchemaA, config.Default().Render, true, &out)
	require.NoError(t, err)

	renderChunks(t, r, segment.SchemaA, "[REFACTORED] I can do it. [NOTE] Be direct. [NEXT] Great.")

	assert.Equal(t, "Better phrasing\nI can do it.\n\nNote\nBe direct.\n\nPartner\nGreat.\n", out.String())
}

func TestNothingPrintedWithoutSections(t *testing.T) {
	var out bytes.Buffer
	r, err := NewTerminalRenderer(segment.SchemaB, config.Default().Render, true, &out)
	require.NoError(t, err)

	renderChunks(t, r, segment.SchemaB, "no tags at all")
	assert.Empty(t, out.String())
}

func TestMarkdownAnalysis(t *testing.T) {
	var out bytes.Buffer
	r, err := NewTerminalRenderer(segment.SchemaB, config.Default().Render, false, &out)
	require.NoError(t, err)

	renderChunks(t, r, segment.SchemaB,
		"[NEXT]Okay.[ANALYSIS]First point\n\n", "Second point")

	s := out.String()
	assert.Contains(t, s, "Okay.")
	first := strings.Index(s, "First")
	second := strings.Index(s, "Second")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}

func TestFindMarkdownBreakPoint(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"no break", -1},
		{"one\n\ntwo", 5},
		{"a\n\nb\n\nc", 6},
		{"trailing\n\n", 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, findMarkdownBreakPoint(tt.content), tt.content)
	}
}
