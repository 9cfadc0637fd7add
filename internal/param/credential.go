package param

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/samber/lo"
)

// Credential is the model API key resolved once at startup and never
// changed afterwards. An empty Key means the user has to type one in.
type Credential struct {
	Key string
}

// LoadCredential reads the key from the parameter store when path is set.
func LoadCredential(ctx context.Context, f Fetcher, path string) (Credential, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("credential")
	if path == "" {
		log.Info("no parameter configured, key must be entered on the form")
		return Credential{}, nil
	}

	key, err := f.Fetch(ctx, path)
	if err != nil {
		return Credential{}, fmt.Errorf("fetch api key %s: %w", path, err)
	}
	log.Info("loaded api key from parameter store")
	return Credential{Key: strings.TrimSpace(key)}, nil
}

// Stored reports whether the key came from the managed store.
func (c Credential) Stored() bool { return c.Key != "" }

// Resolve prefers the stored key over one submitted with a request.
func (c Credential) Resolve(submitted string) string {
	return lo.Ternary(c.Stored(), c.Key, strings.TrimSpace(submitted))
}
