package pipeline

import (
	"context"
	"fmt"
	"strings"

	"docqa/src/fallback"
	"docqa/src/infrastructure/log"
)

// FailureMarker is the answer text persisted and returned when every
// candidate model fails. It keeps chat history complete and auditable.
const FailureMarker = "[generation failed: no model produced an answer]"

// LLMProvider defines the text-generation capability. Swappable backend.
type LLMProvider interface {
	Generate(ctx context.Context, model, system, prompt string) (string, error)
}

// Generator produces a grounded answer by trying an ordered list of model
// identifiers until one returns non-empty text.
type Generator struct {
	llm    LLMProvider
	models []string
}

func NewGenerator(llm LLMProvider, models []string) *Generator {
	return &Generator{
		llm:    llm,
		models: models,
	}
}

// Generate returns the first successful model's answer. When every model
// fails it returns FailureMarker together with ErrGenerationFailed, so the
// caller always has a value to persist.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	prompt, err := buildAnswerPrompt(question, contextText)
	if err != nil {
		return FailureMarker, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	strategies := make([]fallback.Strategy[string, string], 0, len(g.models))
	for _, model := range g.models {
		model := model
		strategies = append(strategies, fallback.Strategy[string, string]{
			Name: model,
			Run: func(ctx context.Context, prompt string) (string, error) {
				return g.llm.Generate(ctx, model, AnswerSystemMessage, prompt)
			},
		})
	}

	nonEmpty := func(s string) bool { return strings.TrimSpace(s) != "" }

	answer, model, err := fallback.First(ctx, prompt, nonEmpty, strategies)
	if err != nil {
		log.Error(err, "all candidate models failed", "models", g.models)
		return FailureMarker, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	log.Debug("generated answer", "model", model, "chars", len(answer))
	return strings.TrimSpace(answer), nil
}
