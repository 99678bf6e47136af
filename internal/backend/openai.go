// ABOUTME: Backend backed by an OpenAI-compatible chat completion API
// ABOUTME: Sends the question as a single user turn tagged with the thread key

package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// errEmptyCompletion is returned when the API answers with no choices.
var errEmptyCompletion = errors.New("completion returned no choices")

// OpenAI answers questions with a chat completion model.
type OpenAI struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

// NewOpenAI creates an OpenAI backend. baseURL may point at any compatible API.
func NewOpenAI(apiKey, baseURL, model, systemPrompt string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		client:       openai.NewClientWithConfig(config),
		model:        model,
		systemPrompt: systemPrompt,
	}
}

// Answer implements Backend. The thread key is passed as the end-user id so the
// provider can group requests by conversation.
func (o *OpenAI) Answer(ctx context.Context, req Request) (Answer, error) {
	var msgs []openai.ChatCompletionMessage
	if o.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Question,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
		User:     req.ThreadKey,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, errEmptyCompletion
	}

	return Answer{ID: req.ID, Answer: resp.Choices[0].Message.Content}, nil
}
