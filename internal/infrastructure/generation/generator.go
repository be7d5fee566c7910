package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/config"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const systemPrompt = `You are an answer generation engine for a question batch pipeline.
You receive a list of questions and a set of knowledge skills. Answer every question using ONLY the provided skills.
If the skills do not contain enough information for a question, answer with your best inference and say so in the inference field.

Respond with a JSON array only, no surrounding prose. One object per question, in the same order, with this shape:
{"id": "<question id>", "response": "<the answer>", "confidence": <0.0-1.0>, "sources": ["<skill name>"], "reasoning": "<why>", "inference": "<assumptions made, if any>", "remarks": "<caveats, if any>"}`

// LangchainGenerator implements answering.Generator on a langchaingo model.
type LangchainGenerator struct {
	llm    llms.Model
	cfg    config.GenerationConfig
	logger *zap.Logger
}

// NewLangchainGenerator creates a generator for the configured provider
func NewLangchainGenerator(cfg config.GenerationConfig, logger *zap.Logger) (*LangchainGenerator, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	return &LangchainGenerator{
		llm:    model,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Generate answers one batch of questions against the supplied skill content.
// The batch goes out as a single model call; the response must contain
// exactly one result per input, matched by id.
func (g *LangchainGenerator) Generate(ctx context.Context, batch []answering.GenerationInput, skills []skill.Content, speed answering.ModelSpeed) ([]answering.GenerationResult, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}

	userPrompt, err := buildUserPrompt(batch, skills)
	if err != nil {
		return nil, err
	}

	modelName := modelForSpeed(g.cfg, speed)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := g.llm.GenerateContent(ctx, messages, llms.WithModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("generate batch: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("generate batch: no response choices")
	}
	choice := response.Choices[0]

	results, err := parseResults(choice.Content, batch)
	if err != nil {
		g.logger.Warn("rejecting malformed generation response",
			zap.String("model", modelName),
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		return nil, err
	}

	distributeTokens(results, tokensUsed(choice))
	return results, nil
}

// buildUserPrompt renders the skills and the question batch
func buildUserPrompt(batch []answering.GenerationInput, skills []skill.Content) (string, error) {
	var sb strings.Builder

	sb.WriteString("Skills:\n")
	if len(skills) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, s := range skills {
		fmt.Fprintf(&sb, "### %s\n%s\n\n", s.Name, s.Body)
	}

	questions, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("serialize batch: %w", err)
	}
	sb.WriteString("Questions:\n")
	sb.Write(questions)
	sb.WriteString("\n\nJSON array of answers:")

	return sb.String(), nil
}

// parseResults decodes the model output and enforces the one-result-per-input
// contract. Any mismatch rejects the whole batch; partial output is never
// applied to rows.
func parseResults(raw string, batch []answering.GenerationInput) ([]answering.GenerationResult, error) {
	cleaned := stripCodeFence(raw)

	var results []answering.GenerationResult
	if err := json.Unmarshal([]byte(cleaned), &results); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}

	if len(results) != len(batch) {
		return nil, fmt.Errorf("generation response has %d results for %d questions", len(results), len(batch))
	}

	want := make(map[string]bool, len(batch))
	for _, in := range batch {
		want[in.RowID.String()] = true
	}
	for _, res := range results {
		if !want[res.RowID.String()] {
			return nil, fmt.Errorf("generation response references unknown question id %s", res.RowID)
		}
		delete(want, res.RowID.String())
	}
	if len(want) != 0 {
		return nil, fmt.Errorf("generation response is missing %d question(s)", len(want))
	}

	return results, nil
}

// stripCodeFence removes a surrounding markdown code fence, if present
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// tokensUsed extracts the completion token count from provider metadata, if
// the provider reports one.
func tokensUsed(choice *llms.ContentChoice) int {
	if choice.GenerationInfo == nil {
		return 0
	}
	for _, key := range []string{"CompletionTokens", "completion_tokens", "output_tokens"} {
		if v, ok := choice.GenerationInfo[key]; ok {
			switch n := v.(type) {
			case int:
				return n
			case float64:
				return int(n)
			}
		}
	}
	return 0
}

// distributeTokens spreads the batch token cost evenly across results
func distributeTokens(results []answering.GenerationResult, total int) {
	if total <= 0 || len(results) == 0 {
		return
	}
	per := total / len(results)
	for i := range results {
		results[i].TokensUsed = per
	}
	results[len(results)-1].TokensUsed += total % len(results)
}

// Ensure LangchainGenerator implements Generator
var _ answering.Generator = (*LangchainGenerator)(nil)
