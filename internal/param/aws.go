package param

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/samber/do"
)

type ParameterStoreAPI interface {
	GetParameter(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ParameterStoreFetcher struct {
	client ParameterStoreAPI
}

func NewParameterStoreFetcher(i *do.Injector) (Fetcher, error) {
	return &ParameterStoreFetcher{client: do.MustInvoke[*ssm.Client](i)}, nil
}

// ErrEmptyParameter means the parameter exists but holds no value.
var ErrEmptyParameter = errors.New("parameter has no value")

// Fetch reads one SecureString (or plain String) parameter, decrypted.
func (f *ParameterStoreFetcher) Fetch(ctx context.Context, path string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("ssm").With("name", path)

	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Error("get parameter failed", "error", err)
		return "", err
	}
	if out == nil || out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", ErrEmptyParameter
	}

	log.Debug("resolved parameter", "version", out.Parameter.Version, "type", out.Parameter.Type)
	return aws.ToString(out.Parameter.Value), nil
}
