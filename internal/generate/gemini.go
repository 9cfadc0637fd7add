package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/dmorgan81/archprompt/internal/prompt"
	"github.com/samber/do"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-pro"

// Model is the slice of the genai client used here. *genai.Models satisfies it.
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ModelFactory builds a model client for one API key.
type ModelFactory func(ctx context.Context, apiKey string, client *http.Client) (Model, error)

func NewGenAIModel(ctx context.Context, apiKey string, client *http.Client) (Model, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	})
	if err != nil {
		return nil, err
	}
	return c.Models, nil
}

type GeminiGenerator struct {
	NewModel      ModelFactory
	Client        *http.Client
	Model         string
	MaxRetries    uint64
	RetryInterval time.Duration
}

func NewGeminiGenerator(i *do.Injector) (Generator, error) {
	return &GeminiGenerator{
		NewModel:      NewGenAIModel,
		Client:        do.MustInvoke[*http.Client](i),
		Model:         do.MustInvokeNamed[string](i, "gemini_model"),
		MaxRetries:    do.MustInvokeNamed[uint64](i, "gemini_max_retries"),
		RetryInterval: do.MustInvokeNamed[time.Duration](i, "gemini_retry_interval"),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, apiKey string, req prompt.Request) (string, error) {
	parts := req.Parts()
	log := log.FromContextOrDiscard(ctx).WithGroup("gemini").With("model", g.Model, "parts", len(parts))

	if apiKey == "" {
		log.Warn("no api key, skipping call")
		return "", ErrConfigurationMissing
	}

	log.Info("generating prompt via gemini")
	model, err := g.NewModel(ctx, apiKey, g.Client)
	if err != nil {
		return "", &CallError{Model: g.Model, Err: err}
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var text string
	attempt := 0
	op := func() error {
		attempt++
		resp, err := model.GenerateContent(ctx, g.Model, contents, nil)
		if err != nil {
			log.Warn("gemini call failed", "attempt", attempt, "error", err)
			return err
		}
		text, err = responseText(resp)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, g.policy(ctx)); err != nil {
		return "", &CallError{Model: g.Model, Err: err}
	}

	log.Info("received prompt via gemini", "attempts", attempt, "length", len(text))
	return text, nil
}

// policy allows MaxRetries extra attempts. Zero means a single attempt.
func (g *GeminiGenerator) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if g.RetryInterval > 0 {
		b.InitialInterval = g.RetryInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, g.MaxRetries), ctx)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("empty response")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked (BlockReason: %s)", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() > 0 {
		return sb.String(), nil
	}

	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return "", errors.New("no text in response")
	default:
		return "", fmt.Errorf("generation stopped (FinishReason: %s)", candidate.FinishReason)
	}
}
