package stream

import (
	"fmt"

	"github.com/markis/bizcoach/internal/segment"
)

// Feed passes every chunk to seg in order and closes seg when the stream ends. On a
// stream error seg is still closed, so whatever arrived stays available through
// seg.State, and the error is returned.
func Feed(chunks <-chan Chunk, seg *segment.Segmenter) error {
	defer seg.Close()

	for chunk := range chunks {
		if chunk.Error != nil {
			return fmt.Errorf("stream error: %w", chunk.Error)
		}
		seg.ProcessChunk(chunk.Content)
	}
	return nil
}
