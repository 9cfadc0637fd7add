package handler

import (
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/dmorgan81/archprompt/internal/design"
	"github.com/dmorgan81/archprompt/internal/generate"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/dmorgan81/archprompt/internal/metrics"
	"github.com/dmorgan81/archprompt/internal/page"
	"github.com/dmorgan81/archprompt/internal/param"
	"github.com/dmorgan81/archprompt/internal/prompt"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const (
	msgSuccess     = "生成成功！請複製下方指令："
	msgMissingKey  = "⚠️ 請先設定 API Key"
	msgErrorPrefix = "錯誤："
)

// Input is one snapshot of the form, or one Lambda invocation payload.
type Input struct {
	Style     string `json:"style,omitempty"`
	Floors    int    `json:"floors,omitempty"`
	Location  string `json:"location,omitempty"`
	Weather   string `json:"weather,omitempty"`
	Image     []byte `json:"image,omitempty"`
	ImageName string `json:"image_name,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
}

// withDefaults fills fields a JSON caller left out with the form defaults.
func (i Input) withDefaults() Input {
	d := design.Defaults()
	i.Style = lo.Ternary(i.Style != "", i.Style, string(d.Style))
	i.Floors = lo.Ternary(i.Floors != 0, i.Floors, d.Floors)
	i.Location = lo.Ternary(i.Location != "", i.Location, d.Location)
	i.Weather = lo.Ternary(i.Weather != "", i.Weather, string(d.Weather))
	return i
}

func (i Input) toParams() design.Params {
	return design.Params{
		Style:    design.Style(i.Style),
		Floors:   i.Floors,
		Location: i.Location,
		Weather:  design.Weather(i.Weather),
	}
}

type Output struct {
	UserText string `json:"user_text"`
	Prompt   string `json:"prompt"`
}

type Handler struct {
	generator    generate.Generator
	credential   param.Credential
	previewWidth int
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		generator:    do.MustInvoke[generate.Generator](i),
		credential:   do.MustInvoke[param.Credential](i),
		previewWidth: do.MustInvokeNamed[int](i, "preview_max_width"),
	}, nil
}

// Collect turns the snapshot into validated parameters, decoding the
// reference image if one was uploaded.
func (h *Handler) Collect(ctx context.Context, input Input) (design.Params, error) {
	params := input.toParams()
	if len(input.Image) > 0 {
		img, err := design.DecodeImage(input.ImageName, input.Image)
		if err != nil {
			return params, err
		}
		params.Image = img
	}
	return params, params.Validate()
}

// Dispatch runs one generate action: collect, build the request, call the
// model once. Every failure is returned, none is retried here.
func (h *Handler) Dispatch(ctx context.Context, input Input) (Output, error) {
	params, err := h.Collect(ctx, input)
	if err != nil {
		return h.reject(ctx, input, err)
	}
	return h.dispatch(ctx, params, input.APIKey)
}

func (h *Handler) reject(ctx context.Context, input Input, err error) (Output, error) {
	log.FromContextOrDiscard(ctx).WithGroup("Handler").Warn("rejected input", "error", err)
	metrics.ObserveDispatch(metrics.OutcomeInvalidInput, len(input.Image) > 0, time.Now())
	return Output{}, err
}

func (h *Handler) dispatch(ctx context.Context, params design.Params, apiKey string) (Output, error) {
	started := time.Now()
	withImage := params.Image != nil
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With(
		"style", params.Style,
		"floors", params.Floors,
		"weather", params.Weather,
		"image", withImage,
	)
	log.Info("dispatching generate action")

	req := prompt.Build(params)
	out := Output{UserText: req.UserText}

	text, err := h.generator.Generate(ctx, h.credential.Resolve(apiKey), req)
	switch {
	case errors.Is(err, generate.ErrConfigurationMissing):
		metrics.ObserveDispatch(metrics.OutcomeMissingKey, withImage, started)
		return out, err
	case err != nil:
		log.Error("generate failed", "error", err)
		metrics.ObserveDispatch(metrics.OutcomeCallFailure, withImage, started)
		return out, err
	}

	metrics.ObserveDispatch(metrics.OutcomeSuccess, withImage, started)
	out.Prompt = text
	return out, nil
}

// Handle is the Lambda entrypoint.
func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log.FromContextOrDiscard(ctx).Info("handling lambda invocation")
	return h.Dispatch(ctx, input.withDefaults())
}

// Render maps a form snapshot to the page to show. A nil input is the first
// visit: defaults and no outcome.
func (h *Handler) Render(ctx context.Context, input *Input) page.View {
	if input == nil {
		return h.view(design.Defaults())
	}

	params, err := h.Collect(ctx, *input)
	view := h.view(params)
	if params.Image != nil {
		view.ImageName = params.Image.Name
		view.Preview = h.preview(ctx, params.Image)
	}
	if err != nil {
		_, err = h.reject(ctx, *input, err)
	} else {
		var out Output
		out, err = h.dispatch(ctx, params, input.APIKey)
		view.Result = out.Prompt
	}

	switch {
	case errors.Is(err, generate.ErrConfigurationMissing):
		view.Warning = msgMissingKey
	case err != nil:
		view.Error = msgErrorPrefix + err.Error()
	default:
		view.Success = msgSuccess
	}
	return view
}

func (h *Handler) view(params design.Params) page.View {
	return page.View{
		Styles: lo.Map(design.Styles(), func(s design.Style, _ int) page.Option {
			return page.Option{Value: string(s), Selected: s == params.Style}
		}),
		Weathers: lo.Map(design.Weathers(), func(w design.Weather, _ int) page.Option {
			return page.Option{Value: string(w), Selected: w == params.Weather}
		}),
		Floors:    lo.Clamp(params.Floors, design.MinFloors, design.MaxFloors),
		MinFloors: design.MinFloors,
		MaxFloors: design.MaxFloors,
		Location:  params.Location,
		KeyStored: h.credential.Stored(),
	}
}

func (h *Handler) preview(ctx context.Context, img *design.Image) template.URL {
	uri, err := img.Preview(h.previewWidth)
	if err != nil {
		log.FromContextOrDiscard(ctx).Warn("cannot build preview", "image", img.Name, "error", err)
		return ""
	}
	// Preview only ever emits data:image/jpeg;base64 URIs.
	return template.URL(uri)
}
