package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmorgan81/archprompt/internal/prompt"
)

// ErrConfigurationMissing means no API key was available, so no call was made.
var ErrConfigurationMissing = errors.New("api key is not configured")

// CallError wraps any fault raised while talking to the model.
type CallError struct {
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Model, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

type Generator interface {
	Generate(ctx context.Context, apiKey string, req prompt.Request) (string, error)
}
