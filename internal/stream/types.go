package stream

import "context"

// Chunk represents a piece of response text as it came off the wire
type Chunk struct {
	Content string
	Error   error
}

// Parser reads a plain-text response body and hands it on in arrival order
type Parser struct {
	ctx    context.Context
	chunks chan Chunk
	size   int
}

func NewParser(ctx context.Context) *Parser {
	return &Parser{
		ctx:    ctx,
		chunks: make(chan Chunk),
		size:   4096,
	}
}

func (p *Parser) Chunks() <-chan Chunk {
	return p.chunks
}
