package generate

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmorgan81/archprompt/internal/design"
	"github.com/dmorgan81/archprompt/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockModel struct {
	calls               int
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)
}

func (m *mockModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents)
	}
	return textResponse("ok"), nil
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func newTestGenerator(m *mockModel) (*GeminiGenerator, *int) {
	built := 0
	return &GeminiGenerator{
		NewModel: func(_ context.Context, apiKey string, _ *http.Client) (Model, error) {
			built++
			return m, nil
		},
		Model:         DefaultModel,
		RetryInterval: time.Millisecond,
	}, &built
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	m := &mockModel{}
	g, built := newTestGenerator(m)

	_, err := g.Generate(context.Background(), "", prompt.Build(design.Defaults()))

	require.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Zero(t, *built, "model client must not be created")
	assert.Zero(t, m.calls, "model must not be called")
}

func TestGenerateSendsSingleRequest(t *testing.T) {
	const want = "A photorealistic eye-level shot of a 5 story building, modern minimalist, located in a busy Taipei street, sunny afternoon, featuring pedestrians. 8k resolution, architectural photography."

	m := &mockModel{
		generateContentFunc: func(_ context.Context, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			assert.Equal(t, DefaultModel, model)
			require.Len(t, contents, 1)
			assert.Equal(t, "user", contents[0].Role)

			parts := contents[0].Parts
			require.Len(t, parts, 2)
			assert.Equal(t, prompt.SystemInstruction, parts[0].Text)
			assert.Equal(t, "風格: 現代極簡, 樓層: 5, 位置: 台北市繁忙街頭, 天氣: 晴朗午後", parts[1].Text)
			return textResponse(want), nil
		},
	}
	g, _ := newTestGenerator(m)

	got, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, m.calls)
}

func TestGenerateAppendsImageAfterText(t *testing.T) {
	params := design.Defaults()
	params.Image = &design.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}

	m := &mockModel{
		generateContentFunc: func(_ context.Context, _ string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
			require.Len(t, contents, 1)
			parts := contents[0].Parts
			require.Len(t, parts, 3)
			assert.Equal(t, params.Describe(), parts[1].Text)
			require.NotNil(t, parts[2].InlineData)
			assert.Equal(t, "image/jpeg", parts[2].InlineData.MIMEType)
			assert.Equal(t, []byte("jpeg-bytes"), parts[2].InlineData.Data)
			return textResponse("with image"), nil
		},
	}
	g, _ := newTestGenerator(m)

	got, err := g.Generate(context.Background(), "key", prompt.Build(params))
	require.NoError(t, err)
	assert.Equal(t, "with image", got)
	assert.Equal(t, 1, m.calls)
}

func TestGenerateReturnsTextVerbatim(t *testing.T) {
	m := &mockModel{
		generateContentFunc: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
			resp := textResponse("  first\n", "second  ")
			resp.Candidates[0].Content.Parts = append([]*genai.Part{{Text: "thinking...", Thought: true}}, resp.Candidates[0].Content.Parts...)
			return resp, nil
		},
	}
	g, _ := newTestGenerator(m)

	got, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))
	require.NoError(t, err)
	assert.Equal(t, "  first\nsecond  ", got)
}

func TestGenerateFailures(t *testing.T) {
	tests := map[string]struct {
		resp    *genai.GenerateContentResponse
		err     error
		message string
	}{
		"transport error": {
			err:     errors.New("dial tcp: connection refused"),
			message: "connection refused",
		},
		"quota exceeded": {
			err:     errors.New("Error 429, Message: Resource has been exhausted"),
			message: "Resource has been exhausted",
		},
		"nil response": {
			message: "empty response",
		},
		"no candidates": {
			resp:    &genai.GenerateContentResponse{},
			message: "no candidates",
		},
		"blocked prompt": {
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			message: "prompt blocked",
		},
		"safety stop": {
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			message: "FinishReason: SAFETY",
		},
		"empty text": {
			resp:    textResponse(""),
			message: "no text in response",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m := &mockModel{
				generateContentFunc: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
					return tc.resp, tc.err
				},
			}
			g, _ := newTestGenerator(m)

			got, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))

			assert.Empty(t, got)
			var callErr *CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, DefaultModel, callErr.Model)
			assert.Contains(t, err.Error(), tc.message)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
			assert.Equal(t, 1, m.calls, "no retry by default")
		})
	}
}

func TestGenerateClientConstructionFailure(t *testing.T) {
	boom := errors.New("invalid credential")
	g := &GeminiGenerator{
		NewModel: func(context.Context, string, *http.Client) (Model, error) { return nil, boom },
		Model:    DefaultModel,
	}

	_, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateRetries(t *testing.T) {
	transient := errors.New("503 unavailable")

	t.Run("recovers within budget", func(t *testing.T) {
		m := &mockModel{}
		m.generateContentFunc = func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
			if m.calls < 3 {
				return nil, transient
			}
			return textResponse("third time"), nil
		}
		g, built := newTestGenerator(m)
		g.MaxRetries = 2

		got, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))
		require.NoError(t, err)
		assert.Equal(t, "third time", got)
		assert.Equal(t, 3, m.calls)
		assert.Equal(t, 1, *built)
	})

	t.Run("gives up after budget", func(t *testing.T) {
		m := &mockModel{
			generateContentFunc: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
				return nil, transient
			},
		}
		g, _ := newTestGenerator(m)
		g.MaxRetries = 1

		_, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 2, m.calls)
	})

	t.Run("malformed responses are not retried", func(t *testing.T) {
		m := &mockModel{
			generateContentFunc: func(context.Context, string, []*genai.Content) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{}, nil
			},
		}
		g, _ := newTestGenerator(m)
		g.MaxRetries = 3

		_, err := g.Generate(context.Background(), "key", prompt.Build(design.Defaults()))
		assert.Error(t, err)
		assert.Equal(t, 1, m.calls)
	})
}

func TestNewGenAIModel(t *testing.T) {
	m, err := NewGenAIModel(context.Background(), "test-key", http.DefaultClient)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
