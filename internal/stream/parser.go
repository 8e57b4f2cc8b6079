package stream

import (
	"errors"
	"io"
)

// Process reads body until EOF, emitting every read as one Chunk. Read boundaries are
// whatever the transport delivers; they may fall inside a tag or a multi-byte rune.
// The channel is closed when the body is exhausted, fails, or the context is done.
func (p *Parser) Process(body io.Reader) {
	defer close(p.chunks)
	done := p.ctx.Done()

	buf := make([]byte, p.size)
	for {
		select {
		case <-done:
			p.chunks <- Chunk{Error: p.ctx.Err()}
			return
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- Chunk{Content: string(buf[:n])}:
			case <-done:
				p.chunks <- Chunk{Error: p.ctx.Err()}
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			p.chunks <- Chunk{Error: err}
			return
		}
	}
}
