package coach

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// GeminiProducer streams responses from the Gemini API.
type GeminiProducer struct {
	client *genai.Client
	model  string
}

func NewGeminiProducer(ctx context.Context, apiKey, model string) (*GeminiProducer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProducer{client: client, model: model}, nil
}

func (g *GeminiProducer) Stream(ctx context.Context, p Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		config := &genai.GenerateContentConfig{}
		if p.System != "" {
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(p.User), config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				// Don't trim: spaces between fragments are part of the text.
				if part == nil || part.Thought || part.Text == "" {
					continue
				}
				if !yield(part.Text, nil) {
					return
				}
			}
		}
	}
}
