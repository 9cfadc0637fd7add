package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/samber/do"
)

//go:embed assets/index.html
var indexTmpl string

type Option struct {
	Value    string
	Selected bool
}

// View is everything the page shows for one render. It is built fresh for
// every request and never mutated after rendering starts.
type View struct {
	Styles    []Option
	Weathers  []Option
	Floors    int
	MinFloors int
	MaxFloors int
	Location  string

	// Preview is a data URI of the uploaded reference image.
	Preview   template.URL
	ImageName string

	KeyStored bool

	Result  string
	Success string
	Warning string
	Error   string
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(*do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Render(ctx context.Context, view View) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("index").Parse(indexTmpl))
	})

	log := log.FromContextOrDiscard(ctx).WithGroup("templator")
	log.Debug("rendering page", "result", view.Result != "", "warning", view.Warning != "", "error", view.Error != "")

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, view); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
