package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/logging"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

var (
	// ErrNotConfigured is returned when no API key was supplied.
	ErrNotConfigured = errors.New("assistant not configured: ANTHROPIC_API_KEY is empty")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Messager is the part of the Anthropic client the chat uses.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Chat sends questions to the model together with the data context.
type Chat struct {
	messages  Messager
	model     string
	maxTokens int64
	log       *logrus.Entry
}

// NewChat creates a chat backed by the Anthropic API.
func NewChat(apiKey, model string, log *logrus.Logger) (*Chat, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewChatWithMessager(&c.Messages, model, log), nil
}

// NewChatWithMessager creates a chat over any Messager.
func NewChatWithMessager(m Messager, model string, log *logrus.Logger) *Chat {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Chat{
		messages:  m,
		model:     model,
		maxTokens: 1024,
		log:       logging.Component(log, "assistant"),
	}
}

// Model reports the model the chat talks to.
func (c *Chat) Model() string { return c.model }

// Ask answers question using payload as the only source of facts.
func (c *Chat) Ask(ctx context.Context, payload Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	system, err := payload.SystemPrompt()
	if err != nil {
		return "", err
	}

	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(question))},
	})
	if err != nil {
		c.log.WithError(err).Warn("Assistant request failed")
		return "", fmt.Errorf("assistant request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	c.log.WithFields(logrus.Fields{
		"model":  c.model,
		"trends": len(payload.Trends),
	}).Debug("Assistant answered")
	return sb.String(), nil
}
