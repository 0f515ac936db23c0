// Package openai implements the inference provider against an
// OpenAI-compatible endpoint, typically a local inference server
// (llama.cpp, Ollama, LM Studio).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// maxExpansionVariants bounds how many related queries the model is asked for.
const maxExpansionVariants = 3

// Client is an inference provider using the OpenAI-compatible API.
type Client struct {
	client    *openai.Client
	embedding openai.EmbeddingModel
	chatModel string
	logger    *zap.Logger
}

// Config holds the inference provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Logger         *zap.Logger
}

// NewClient creates an OpenAI-compatible inference provider.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Client{
		client:    openai.NewClientWithConfig(clientCfg),
		embedding: openai.EmbeddingModel(cfg.EmbeddingModel),
		chatModel: cfg.ChatModel,
		logger:    cfg.Logger,
	}
}

// Embed implements inference.Provider.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          c.embedding,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError("embedding", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrInference)
	}

	return resp.Data[0].Embedding, nil
}

const rerankSystemPrompt = "You are a relevance scorer. Given a query and " +
	"numbered passages, score how relevant each passage is to the query " +
	"from 0.0 to 1.0. Respond with only a JSON array of numbers, one per " +
	"passage, in passage order."

// Rerank scores all texts against the query in a single chat completion.
// The local server has no dedicated rerank endpoint, so scores are obtained
// as a JSON array from the chat model.
func (c *Client) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	for i, t := range texts {
		fmt.Fprintf(&sb, "Passage %d:\n%s\n\n", i+1, t)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rerankSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return nil, parseAPIError("rerank", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty rerank response: %w", domain.ErrInference)
	}

	scores, err := parseScores(resp.Choices[0].Message.Content, len(texts))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInference, err)
	}
	return scores, nil
}

const expandSystemPrompt = "You are a search query expander. Given a search " +
	"query, produce up to %d alternative phrasings or closely related " +
	"queries that could match relevant documents. Respond with one query " +
	"per line and nothing else."

// Expand asks the chat model for related query strings.
func (c *Client) Expand(ctx context.Context, query string) ([]string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(expandSystemPrompt, maxExpansionVariants)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, parseAPIError("expand", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty expansion response: %w", domain.ErrInference)
	}

	var variants []string
	for _, line := range strings.Split(resp.Choices[0].Message.Content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		variants = append(variants, line)
		if len(variants) == maxExpansionVariants {
			break
		}
	}
	return variants, nil
}

// Close implements inference.Provider. The HTTP client holds no model state.
func (c *Client) Close() error { return nil }

// parseScores extracts a JSON float array from model output, tolerating
// surrounding prose or a fenced code block.
func parseScores(content string, want int) ([]float64, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no score array in rerank output")
	}

	var scores []float64
	if err := json.Unmarshal([]byte(content[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("parse rerank scores: %w", err)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("rerank returned %d scores for %d passages", len(scores), want)
	}
	return scores, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrInference for uniform handling.
func parseAPIError(op string, err error) error {
	wrap := domain.ErrInference

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s API error %d: %s: %w",
			op, reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w",
			op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("%s request failed: %w: %w", op, wrap, err)
}
