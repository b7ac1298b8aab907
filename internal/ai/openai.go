package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder turns texts into fixed-dimension vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Completer sends a prompt to a generative model and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrEmptyResponse is returned when the model replies without content.
var ErrEmptyResponse = errors.New("ai: empty response")

// OpenAIClient implements Embedder and Completer using the OpenAI API.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	embedModel string
	timeout    time.Duration
}

type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string // optional
	Timeout        time.Duration
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai: OpenAI API key must be specified")
	}
	if cfg.Model == "" {
		return nil, errors.New("ai: OpenAI model must be specified")
	}
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{client: c, model: cfg.Model, embedModel: cfg.EmbeddingModel, timeout: timeout}, nil
}

// Embed requests embeddings for all texts in a single call.
func (o *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if o.embedModel == "" {
		return nil, errors.New("ai: embedding model not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.embedModel),
	})
	if err != nil {
		slog.Error("openai: embeddings error", "err", err)
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("ai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("ai: embedding index %d out of range", d.Index)
		}
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Complete asks the chat model for a JSON object reply.
func (o *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		slog.Error("openai: completion error", "err", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
