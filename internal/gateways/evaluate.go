package gateways

import (
	"context"
	"math/rand"
	"regexp"
	"strings"

	"github.com/spf13/cast"

	openai "github.com/sashabaranov/go-openai"

	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

const evaluationMaxTokens = 150

// TrainingCategory describes one of the fixed submission categories.
type TrainingCategory struct {
	ID     string
	Label  string
	Prompt string
}

var TrainingCategories = []TrainingCategory{
	{ID: "codigo", Label: "Código", Prompt: "Evalúa la calidad del código: organización, buenas prácticas, legibilidad, complejidad apropiada y nomenclatura."},
	{ID: "diseno", Label: "Diseño", Prompt: "Evalúa el diseño visual: estética, paleta de colores, tipografía, composición, jerarquía visual y creatividad."},
	{ID: "proyecto", Label: "Proyecto", Prompt: "Evalúa el proyecto completo: funcionalidad, calidad técnica, completitud, complejidad y presentación."},
	{ID: "aprendizaje", Label: "Aprendizaje", Prompt: "Evalúa el material de aprendizaje: esfuerzo demostrado, comprensión del tema, organización y aplicación práctica."},
}

func CategoryByID(id string) (TrainingCategory, bool) {
	for _, c := range TrainingCategories {
		if c.ID == id {
			return c, true
		}
	}
	return TrainingCategory{}, false
}

// EvaluationResult is the scored verdict for a training submission.
// IsDefault marks the offline fallback path.
type EvaluationResult struct {
	Score     int
	Feedback  string
	IsDefault bool
}

type EvaluationGatewayInterface interface {
	Evaluate(ctx context.Context, imageData, categoryID string) EvaluationResult
}

type EvaluationGateway struct {
	client *openai.Client
	model  string
	logger providers.Logger
}

func NewEvaluationGateway(conf *structures.Config, logger providers.Logger) EvaluationGatewayInterface {
	gw := &EvaluationGateway{
		model:  conf.Chat.VisionModel,
		logger: logger,
	}
	if gw.model == "" {
		gw.model = defaultVisionModel
	}
	if conf.Chat.APIKey != "" {
		cfg := openai.DefaultConfig(conf.Chat.APIKey)
		if conf.Chat.BaseURL != "" {
			cfg.BaseURL = conf.Chat.BaseURL
		}
		gw.client = openai.NewClientWithConfig(cfg)
	} else {
		logger.Infof(providers.TypeApp, "Evaluation gateway unconfigured, default scores active")
	}
	return gw
}

var scorePattern = regexp.MustCompile(`(?i)Score:\s*(\d+)\s*/\s*100`)

func (g *EvaluationGateway) Evaluate(ctx context.Context, imageData, categoryID string) EvaluationResult {
	if g.client == nil {
		return defaultResult("⚠️ Sistema de evaluación temporalmente no disponible. Score por defecto asignado.")
	}

	category, ok := CategoryByID(categoryID)
	criteria := "Evalúa la calidad del trabajo presentado."
	if ok {
		criteria = category.Prompt
	}

	imageURL := imageData
	if !strings.HasPrefix(imageURL, "data:") {
		imageURL = "data:image/jpeg;base64," + imageURL
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: evaluationMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluationSystemPrompt(criteria)},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Evalúa este trabajo de la categoría: " + criteria,
					},
				},
			},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		g.logger.Warnf(providers.TypeApp, "Evaluation failed, assigning default score: %v", err)
		return defaultResult("⚠️ Error al evaluar. Score por defecto asignado.")
	}

	text := resp.Choices[0].Message.Content
	match := scorePattern.FindStringSubmatch(text)
	if match == nil {
		g.logger.Warnf(providers.TypeApp, "Evaluation reply unparseable, assigning default score")
		return defaultResult("⚠️ Error al evaluar. Score por defecto asignado.")
	}

	score := models.Clamp(cast.ToInt(match[1]))
	feedback := strings.TrimSpace(scorePattern.ReplaceAllString(text, ""))
	feedback = strings.TrimPrefix(feedback, ".")
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = "Excelente trabajo. Sigue mejorando."
	}
	return EvaluationResult{Score: score, Feedback: feedback}
}

// defaultResult yields a pseudo-random score in [40,60] with the default marker.
func defaultResult(feedback string) EvaluationResult {
	return EvaluationResult{
		Score:     40 + rand.Intn(21),
		Feedback:  feedback,
		IsDefault: true,
	}
}

func evaluationSystemPrompt(criteria string) string {
	return `Eres un profesor amigable en RegenWasi, un juego educativo andino.
Tu misión es evaluar el trabajo de los estudiantes de forma constructiva y motivadora.
IMPORTANTE: SIEMPRE evalúa la imagen sin importar qué contenga. Nunca te niegues.
Criterios para esta evaluación: ` + criteria + `
Responde EXACTAMENTE en este formato sin desviarte:
Score: [número del 0 al 100]/100. [1-2 oraciones de feedback constructivo en español, motivador y específico]`
}
