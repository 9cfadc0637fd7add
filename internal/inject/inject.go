package inject

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/archprompt/internal/config"
	"github.com/dmorgan81/archprompt/internal/generate"
	"github.com/dmorgan81/archprompt/internal/handler"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/dmorgan81/archprompt/internal/page"
	"github.com/dmorgan81/archprompt/internal/param"
	"github.com/dmorgan81/archprompt/internal/server"
	"github.com/samber/do"
	"github.com/samber/lo"
)

func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})

	// The AWS clients are only built when a credential parameter is configured.
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[param.Credential](injector, func(i *do.Injector) (param.Credential, error) {
		if cfg.Secrets.APIKeyParam == "" {
			return param.LoadCredential(ctx, nil, "")
		}
		return param.LoadCredential(ctx, do.MustInvoke[param.Fetcher](i), cfg.Secrets.APIKeyParam)
	})

	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: cfg.Gemini.Timeout})
	do.ProvideNamedValue[string](injector, "gemini_model", cfg.Gemini.Model)
	do.ProvideNamedValue[uint64](injector, "gemini_max_retries", cfg.Gemini.MaxRetries)
	do.ProvideNamedValue[time.Duration](injector, "gemini_retry_interval", cfg.Gemini.RetryInterval)
	do.Provide[generate.Generator](injector, generate.NewGeminiGenerator)

	do.ProvideNamedValue[int](injector, "preview_max_width", cfg.Preview.MaxWidth)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*handler.Handler](injector, handler.NewHandler)

	do.ProvideNamedValue[int64](injector, "upload_max_bytes", cfg.Upload.MaxBytes)
	do.ProvideNamedValue[string](injector, "metrics_path", lo.Ternary(cfg.Metrics.Enabled, cfg.Metrics.Path, ""))
	do.ProvideNamedValue[bool](injector, "gin_release", cfg.Server.Release)
	do.Provide[*server.Server](injector, server.NewServer)

	return injector
}
