// Package assistant is the catalog-aware shopping chat.
package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel       = "gemini-3-flash-preview"
	DefaultTemperature = 0.7

	// EmptyReply is returned when the model answers with nothing.
	EmptyReply = "I'm sorry, I couldn't process that request right now. How else can I help you find what you need?"
	// UnavailableReply is returned on any request failure or when the assistant is disabled.
	UnavailableReply = "I'm having a little trouble connecting to my brain right now. Please try again in a moment!"

	maxTokens = 1024
)

const guidelines = `Guidelines:
1. Be concise and stylish in your speech.
2. If a user asks for recommendations, pick 1-2 items from the catalog that match their vibe.
3. If they ask about something not in the catalog, politely guide them to our existing categories.
4. Use emojis occasionally to maintain a premium yet friendly tone.`

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	StoreName   string
}

// Shopper answers free-text shopping questions against the current catalog.
// A Shopper without an API key is disabled and always returns UnavailableReply.
type Shopper struct {
	client      *openai.Client
	model       string
	temperature float64
	storeName   string
	logger      *zap.Logger
}

func NewShopper(cfg Config, logger *zap.Logger) *Shopper {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Shopper{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		storeName:   cfg.StoreName,
		logger:      logger,
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.temperature <= 0 {
		s.temperature = DefaultTemperature
	}
	if s.storeName == "" {
		s.storeName = "ShopHub"
	}
	if cfg.APIKey == "" {
		logger.Info("AI shopper disabled, no API key configured")
		return s
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	)
	s.client = &client
	return s
}

func (s *Shopper) Enabled() bool { return s.client != nil }

// SystemInstruction lists every product as "- name ($price): description [Category: category]"
// followed by the fixed guidelines.
func (s *Shopper) SystemInstruction(products []domain.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly and professional Personal Shopper for %q.\n", s.storeName)
	b.WriteString("Your goal is to help users find the perfect product from our catalog.\n\nCurrent Catalog:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s ($%s): %s [Category: %s]\n",
			p.Name, strconv.FormatFloat(p.Price, 'f', -1, 64), p.Description, p.Category)
	}
	b.WriteString("\n")
	b.WriteString(guidelines)
	return b.String()
}

// Reply never fails; errors degrade to canned replies.
func (s *Shopper) Reply(ctx context.Context, message string, products []domain.Product) string {
	if !s.Enabled() {
		return UnavailableReply
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.SystemInstruction(products)),
			openai.UserMessage(message),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(s.temperature),
	})
	if err != nil {
		s.logger.Warn("AI shopper request failed", zap.String("model", s.model), zap.Error(err))
		return UnavailableReply
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return EmptyReply
	}
	return resp.Choices[0].Message.Content
}
