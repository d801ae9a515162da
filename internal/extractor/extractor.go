// Package extractor turns article text into structured knowledge (entities,
// relationships, facts) using an OpenAI-compatible chat completion endpoint.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
)

// maxSectionChars caps the text sent per extraction request.
const maxSectionChars = 24000

// ErrNoSections is returned when an extraction is requested for empty input.
var ErrNoSections = errors.New("no sections to extract from")

const systemPrompt = `You are a knowledge extraction engine. Given an
encyclopedia article, extract the entities it mentions, the relationships
between them, and notable standalone facts. Respond with a JSON object:
{"entities":[{"name":"...","type":"..."}],
 "relationships":[{"subject":"...","predicate":"...","object":"..."}],
 "facts":["..."]}`

// completionClient is the slice of the OpenAI API the extractor uses.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor implements knowledge extraction over chat completions.
type OpenAIExtractor struct {
	client completionClient
	model  string
	log    logger.Interface
}

// New creates an extractor from configuration.
func New(cfg config.OpenAIConfig, log logger.Interface) *OpenAIExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ExtractModel,
		log:    log,
	}
}

// NewWithClient creates an extractor with an injected completion client.
// Used in tests.
func NewWithClient(client completionClient, model string, log logger.Interface) *OpenAIExtractor {
	return &OpenAIExtractor{client: client, model: model, log: log}
}

// Extract runs knowledge extraction over the article sections. Endpoint
// failures are transient from the work queue's point of view: the model may
// be rate limited or briefly unavailable. Empty input is permanent since a
// retry sees the same sections.
func (e *OpenAIExtractor) Extract(
	ctx context.Context,
	title string,
	sections []domain.Section,
) (*domain.Knowledge, error) {
	if len(sections) == 0 {
		return nil, domain.Permanent(fmt.Errorf("extract %q: %w", title, ErrNoSections))
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildArticleText(title, sections)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("extraction request failed: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, domain.Transient(errors.New("extraction returned no choices"))
	}

	var knowledge domain.Knowledge
	if unmarshalErr := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &knowledge); unmarshalErr != nil {
		return nil, domain.Transient(fmt.Errorf("failed to decode extraction output: %w", unmarshalErr))
	}

	e.log.Debug("knowledge extracted",
		"title", title,
		"entities", len(knowledge.Entities),
		"relationships", len(knowledge.Relationships),
		"facts", len(knowledge.Facts),
	)

	return &knowledge, nil
}

// buildArticleText flattens the sections into one prompt body, truncated at
// maxSectionChars.
func buildArticleText(title string, sections []domain.Section) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, section := range sections {
		if b.Len() >= maxSectionChars {
			break
		}
		if section.Heading != "" {
			b.WriteString("## ")
			b.WriteString(section.Heading)
			b.WriteString("\n")
		}
		b.WriteString(section.Text)
		b.WriteString("\n\n")
	}

	text := b.String()
	if len(text) > maxSectionChars {
		text = text[:maxSectionChars]
	}
	return text
}
