package coach

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/markis/bizcoach/internal/segment"
)

// ScriptedProducer replays a fixed response in chunks of ChunkSize runes. It needs no
// network access and backs offline demos and tests.
type ScriptedProducer struct {
	Response  string
	ChunkSize int
	Delay     time.Duration
}

func NewScriptedProducer(response string, chunkSize int, delay time.Duration) *ScriptedProducer {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &ScriptedProducer{Response: response, ChunkSize: chunkSize, Delay: delay}
}

func (s *ScriptedProducer) Stream(ctx context.Context, _ Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		runes := []rune(s.Response)
		for len(runes) > 0 {
			if s.Delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(s.Delay):
				}
			} else if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			n := min(s.ChunkSize, len(runes))
			if !yield(string(runes[:n]), nil) {
				return
			}
			runes = runes[n:]
		}
	}
}

var demoContent = map[segment.Field]string{
	segment.FieldNext:         "That sounds like a solid plan. What do you need from me to get it done by Friday?",
	segment.FieldNextJP:       "いい計画ですね。金曜までに終わらせるために、私から何が必要ですか？",
	segment.FieldRefactored:   "I can have a first draft ready by Thursday, and the final version by Friday noon.",
	segment.FieldRefactoredJP: "木曜までに初稿を、金曜の正午までに最終版を用意できます。",
	segment.FieldAnalysis:     "- Leads with a concrete commitment.\n- Splits the deadline into checkpoints, which builds trust.",
	segment.FieldNote:         "Concrete checkpoints make the commitment credible without sounding defensive.",
}

// DemoResponse returns a well-formed response for schema.
func DemoResponse(schema segment.Schema) string {
	var b strings.Builder
	for i, sec := range schema.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.Tag)
		b.WriteString("\n")
		b.WriteString(demoContent[sec.Field])
	}
	return b.String()
}
