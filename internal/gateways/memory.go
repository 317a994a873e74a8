package gateways

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

const (
	memoryMaxTokens = 60
	memoryNoFact    = "NADA"
	maxFactLength   = 60
)

// MemoryGatewayInterface extracts personal facts from a user message.
// Best-effort: any failure returns the facts unchanged.
type MemoryGatewayInterface interface {
	Extract(ctx context.Context, message string, facts []string) []string
}

type MemoryGateway struct {
	client *openai.Client
	model  string
	logger providers.Logger
}

func NewMemoryGateway(conf *structures.Config, logger providers.Logger) MemoryGatewayInterface {
	gw := &MemoryGateway{
		model:  conf.Chat.Model,
		logger: logger,
	}
	if gw.model == "" {
		gw.model = defaultChatModel
	}
	if conf.Chat.APIKey != "" {
		cfg := openai.DefaultConfig(conf.Chat.APIKey)
		if conf.Chat.BaseURL != "" {
			cfg.BaseURL = conf.Chat.BaseURL
		}
		gw.client = openai.NewClientWithConfig(cfg)
	}
	return gw
}

func (g *MemoryGateway) Extract(ctx context.Context, message string, facts []string) []string {
	if g.client == nil {
		return facts
	}

	prompt := fmt.Sprintf(
		`Del mensaje: "%s", ¿hay algún dato personal del usuario (nombre, gustos, trabajo, ciudad, etc.)? Si sí, extrae en máximo 8 palabras en español. Si no hay nada, responde exactamente: "%s". Memorias actuales: %s`,
		message, memoryNoFact, strings.Join(facts, ", "))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: memoryMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		g.logger.Debugf(providers.TypeApp, "Memory extraction failed: %v", err)
		return facts
	}

	extracted := strings.TrimSpace(resp.Choices[0].Message.Content)
	if extracted == memoryNoFact || extracted == "" || len(extracted) >= maxFactLength {
		return facts
	}

	updated := append(append([]string(nil), facts...), extracted)
	if len(updated) > models.MaxMemoryFacts {
		updated = updated[len(updated)-models.MaxMemoryFacts:]
	}
	return updated
}
