package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiModel is the model used for report prose. Summaries need fluency,
// not deep reasoning, so the flash tier is enough.
const geminiModel = "gemini-1.5-flash"

// geminiTimeout bounds the summary call so a slow model never holds up a
// report; on timeout we fall back to the template.
const geminiTimeout = 8 * time.Second

// GeminiSummarizer generates the summary with Gemini and falls back to the
// deterministic template on any failure.
type GeminiSummarizer struct {
	apiKey   string
	fallback Summarizer
}

// NewGeminiSummarizer creates a Gemini-backed summarizer.
func NewGeminiSummarizer(apiKey string) *GeminiSummarizer {
	return &GeminiSummarizer{
		apiKey:   apiKey,
		fallback: NewTemplateSummarizer(),
	}
}

// Summarize implements Summarizer.
func (s *GeminiSummarizer) Summarize(sctx Context) string {
	ctx, cancel := context.WithTimeout(context.Background(), geminiTimeout)
	defer cancel()

	text, err := s.generate(ctx, sctx)
	if err != nil {
		log.Printf("[summary] gemini generation failed, using template: %v", err)
		return s.fallback.Summarize(sctx)
	}
	return text
}

func (s *GeminiSummarizer) generate(ctx context.Context, sctx Context) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer func() { _ = client.Close() }()

	model := client.GenerativeModel(geminiModel)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(sctx)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return strings.TrimSpace(text), nil
}

// buildPrompt renders the aggregate evidence into a grounded prompt. The
// model only rephrases facts the engine computed; it never invents scores.
func buildPrompt(sctx Context) string {
	var sb strings.Builder
	sb.WriteString("Write a 2-3 sentence professional summary of this candidate analysis for a recruiter. ")
	sb.WriteString("Use only the facts below. Do not mention scores or numbers directly.\n\n")

	sb.WriteString("Verified skills:")
	for _, skill := range sctx.Aggregate.Skills {
		if skill.Verified {
			sb.WriteString(" " + skill.Name)
		}
	}
	sb.WriteString("\nProjects:")
	for _, project := range sctx.Aggregate.Projects {
		sb.WriteString(fmt.Sprintf(" %s (%s authenticity)", project.Name, project.Authenticity))
	}
	sb.WriteString("\nConcerns:")
	for _, flag := range sctx.Risks {
		sb.WriteString(" " + flag.Description + ";")
	}
	sb.WriteString(fmt.Sprintf("\nOverall recommendation: %s\n", sctx.Recommendation))
	return sb.String()
}

// extractText flattens the first candidate's text parts.
func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String()
}
