// Package coach builds coaching prompts and streams responses from language models.
//
// A Producer returns the model's answer as an ordered sequence of text fragments whose
// concatenation is the full tag-delimited response. Producers never parse the response;
// segmenting it is left to package segment.
package coach

import (
	"context"
	"fmt"
	"iter"

	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/segment"
)

// Producer streams a model response for a prompt.
type Producer interface {
	Stream(ctx context.Context, p Prompt) iter.Seq2[string, error]
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context, p Prompt) iter.Seq2[string, error]

func (f ProducerFunc) Stream(ctx context.Context, p Prompt) iter.Seq2[string, error] {
	return f(ctx, p)
}

// NewProducer returns the producer selected by cfg.Provider.
func NewProducer(ctx context.Context, cfg *config.Config, schema segment.Schema) (Producer, error) {
	switch cfg.Provider {
	case config.ProviderScripted:
		response := cfg.Script.Response
		if response == "" {
			response = DemoResponse(schema)
		}
		return NewScriptedProducer(response, cfg.Script.ChunkSize, cfg.Script.Delay), nil
	}

	key, err := config.APIKey(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProducer(ctx, key, cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAIProducer(key, cfg.BaseURL, cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
