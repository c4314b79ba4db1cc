package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiConfig configures one Gemini-backed generator.
type GeminiConfig struct {
	APIKey  string        // if empty, falls back to env GEMINI_API_KEY
	Model   string        // e.g. "gemini-2.5-flash-lite"
	Timeout time.Duration // per-call deadline; 0 = no deadline
}

// Gemini implements Generator over the Google generative AI API.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
	log    *slog.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-flash-latest"
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg, log: logger}, nil
}

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate sends one prompt and concatenates the text parts of the first
// candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	g.log.Info("llm.generate.start", "req_id", rid, "model", g.cfg.Model, "prompt_len", len(prompt))

	model := g.client.GenerativeModel(g.cfg.Model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.log.Error("llm.generate.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.log.Warn("llm.generate.empty", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	g.log.Info("llm.generate.ok",
		"req_id", rid,
		"response_len", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
