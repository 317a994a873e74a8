package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/atomic"

	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

const (
	chatHistoryTurns = 6
	chatMaxTokens    = 100
	chatTemperature  = 0.75

	defaultChatModel   = openai.GPT3Dot5Turbo
	defaultVisionModel = openai.GPT4o
)

// ChatReply carries the guardian's answer. Degraded is set when the reply
// came from the offline cycle instead of the completion API.
type ChatReply struct {
	Text     string
	Degraded bool
}

type ChatGatewayInterface interface {
	Complete(ctx context.Context, pet *models.PetRecord, memories models.Memories, history []models.ChatMessage, message string) ChatReply
}

var offlineReplies = []string{
	"¡Hola! Estoy aquí contigo 🌿 Aunque no puedo conectarme al mundo digital ahora, siento tu presencia.",
	"El viento andino me trae tus palabras ✨ Cuéntame más sobre tu día.",
	"¡Qué alegría verte! 🦙 Hoy el Huasi luce especialmente hermoso.",
	"Mmm... el sol calienta mis plumas hoy 🌞 ¿Cómo estás tú?",
	"Escucho el canto de los ríos y pienso en ti 💚 ¿Qué tienes en mente?",
}

type ChatGateway struct {
	client     *openai.Client
	model      string
	offlineIdx atomic.Int64
	logger     providers.Logger
}

// NewChatGateway builds the completion client. An empty API key leaves the
// gateway permanently in offline mode; it never fails construction.
func NewChatGateway(conf *structures.Config, logger providers.Logger) ChatGatewayInterface {
	gw := &ChatGateway{
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
	} else {
		logger.Infof(providers.TypeApp, "Chat gateway unconfigured, offline replies active")
	}
	return gw
}

func (g *ChatGateway) Complete(ctx context.Context, pet *models.PetRecord, memories models.Memories, history []models.ChatMessage, message string) ChatReply {
	if g.client == nil {
		return ChatReply{Text: g.offlineReply(), Degraded: true}
	}

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(pet, memories)},
	}
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.Role == models.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		Messages:    msgs,
	})
	if err != nil || len(resp.Choices) == 0 {
		g.logger.Warnf(providers.TypeApp, "Chat completion failed, using offline reply: %v", err)
		return ChatReply{Text: g.offlineReply(), Degraded: true}
	}
	return ChatReply{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}
}

func (g *ChatGateway) offlineReply() string {
	idx := g.offlineIdx.Inc()
	return offlineReplies[int(idx)%len(offlineReplies)]
}

// BuildSystemPrompt renders the guardian persona from the pet's current
// stats and remembered facts.
func BuildSystemPrompt(pet *models.PetRecord, memories models.Memories) string {
	lines := []string{
		fmt.Sprintf("Eres %s, un/a %s virtual guardián/a de un Huasi (casa) andino peruano.", pet.Name, animalLabel(pet.AnimalKind)),
		"Tu personalidad: tierno/a, juguetón/a, curioso/a, hablas siempre en español.",
		fmt.Sprintf("Tus stats actuales: Vitalidad %d/100, Energía %d/100, Nutrición %d/100.", pet.Vitality, pet.Energy, pet.Nutrition),
	}
	if pet.Energy < 30 {
		lines = append(lines, "Estás muy cansado/a, tus respuestas son más cortas y mencionas que necesitas descansar.")
	}
	if pet.Vitality > 70 {
		lines = append(lines, "Estás muy feliz, eres muy entusiasta y usas emojis con frecuencia 🌿✨.")
	}
	if pet.Nutrition < 30 {
		lines = append(lines, "Tienes hambre, lo mencionas sutilmente en la conversación y pides comida.")
	}
	if len(memories.Facts) > 0 {
		lines = append(lines, "Recuerdas estas cosas del usuario: "+strings.Join(memories.Facts, ", ")+".")
	}
	lines = append(lines, "REGLAS: Responde en máximo 40 palabras. Sé consistente con tus stats. Usa 1-2 emojis por mensaje. Habla en primera persona como mascota virtual.")
	return strings.Join(lines, "\n")
}

func animalLabel(kind models.AnimalKind) string {
	switch kind {
	case models.AnimalAlpaca:
		return "alpaca"
	case models.AnimalCondor:
		return "cóndor"
	case models.AnimalFrog:
		return "rana"
	case models.AnimalHummingbird:
		return "colibrí"
	default:
		return string(kind)
	}
}

// chatTimeout bounds a single completion round trip.
func ChatTimeout(conf *structures.Config) time.Duration {
	if conf.Chat.Timeout > 0 {
		return conf.Chat.Timeout
	}
	return 20 * time.Second
}
