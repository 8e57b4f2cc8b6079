package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProducer streams responses from an OpenAI-compatible chat completions endpoint.
type OpenAIProducer struct {
	client *openai.Client
	model  string
}

func NewOpenAIProducer(apiKey, baseURL, model string) *OpenAIProducer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProducer{client: openai.NewClientWithConfig(config), model: model}
}

func (o *OpenAIProducer) Stream(ctx context.Context, p Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var messages []openai.ChatCompletionMessage
		if p.System != "" {
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

		stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: messages,
			Stream:   true,
		})
		if err != nil {
			yield("", fmt.Errorf("stream creation error: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("error receiving stream data: %w", err))
				return
			}
			if len(response.Choices) == 0 {
				continue
			}
			if content := response.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}
