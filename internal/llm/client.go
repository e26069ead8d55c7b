package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/pkg/circuitbreaker"
	"github.com/employeevirtual/backend/pkg/logger"
	"github.com/employeevirtual/backend/pkg/retry"
)

type Client struct {
	client          *openai.Client
	model           string
	extractionModel string
	temperature     float32
	maxTokens       int
	timeout         time.Duration
	cb              *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResult struct {
	Content    string
	TokensUsed int
}

// ExtractedMetadata mirrors the JSON object the extraction prompt asks for.
type ExtractedMetadata struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	DocumentType string   `json:"document_type"`
	Date         string   `json:"date"`
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Language     string   `json:"language"`
}

func NewClient(apiKey, model, extractionModel string, temperature float32, maxTokens, timeoutSec int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("extraction_model", extractionModel),
	)

	return &Client{
		client:          client,
		model:           model,
		extractionModel: extractionModel,
		temperature:     temperature,
		maxTokens:       maxTokens,
		timeout:         time.Duration(timeoutSec) * time.Second,
		cb:              cb,
		retryConfig:     retryConfig,
	}
}

// ChatReply generates the assistant turn for a chat session. The system
// prompt comes from the session's agent; history carries prior turns in
// order, oldest first. A nil temperature falls back to the configured
// default, so an agent pinned at 0 is still honored.
func (c *Client) ChatReply(ctx context.Context, systemPrompt string, history []Message, temperature *float32) (*ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temp := c.resolveTemperature(temperature)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var result *ChatResult

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    messages,
					Temperature: temp,
					MaxTokens:   c.maxTokens,
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			logger.Debug("Chat reply generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			result = &ChatResult{
				Content:    resp.Choices[0].Message.Content,
				TokensUsed: resp.Usage.TotalTokens,
			}

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveTemperature picks the request temperature. The openai request
// struct tags Temperature with omitempty, so an exact 0 would be dropped
// from the wire and the API would apply its own default. Nudge it to the
// smallest value the encoder keeps.
func (c *Client) resolveTemperature(temperature *float32) float32 {
	temp := c.temperature
	if temperature != nil {
		temp = *temperature
	}
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	return temp
}

const extractionSystemPrompt = `You are a document metadata extraction service.
Given document text, return a single JSON object with exactly these keys:
  title: document title, best effort
  author: author or issuing organization, empty string if unknown
  document_type: one of invoice, contract, report, letter, resume, article, other
  date: primary document date in YYYY-MM-DD, empty string if unknown
  summary: 1-2 sentence summary
  keywords: up to 8 lowercase keywords
  language: ISO 639-1 code of the document language

Return JSON only, no prose.`

// ExtractMetadata runs the structured extraction prompt against the
// configured extraction model and decodes the JSON object it returns.
func (c *Client) ExtractMetadata(ctx context.Context, source string) (*ExtractedMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result *ExtractedMetadata

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.extractionModel,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
						{Role: openai.ChatMessageRoleUser, Content: source},
					},
					Temperature: 0.1,
					MaxTokens:   c.maxTokens,
					ResponseFormat: &openai.ChatCompletionResponseFormat{
						Type: openai.ChatCompletionResponseFormatTypeJSONObject,
					},
				},
			)

			if err != nil {
				return fmt.Errorf("failed to create extraction completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return fmt.Errorf("extraction returned no choices")
			}

			extracted, err := decodeMetadata(resp.Choices[0].Message.Content)
			if err != nil {
				return err
			}

			result = extracted
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	logger.Info("Metadata extracted",
		zap.String("document_type", result.DocumentType),
		zap.Int("keywords", len(result.Keywords)),
	)

	return result, nil
}

func decodeMetadata(content string) (*ExtractedMetadata, error) {
	content = strings.TrimSpace(content)
	// Some models wrap the object in a fenced block despite the JSON mode.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var extracted ExtractedMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}
	return &extracted, nil
}

func (c *Client) ExtractionModel() string {
	return c.extractionModel
}
