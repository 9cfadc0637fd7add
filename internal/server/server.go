// Package server exposes the form over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmorgan81/archprompt/internal/handler"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/dmorgan81/archprompt/internal/page"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
)

const htmlContentType = "text/html; charset=utf-8"

type generateForm struct {
	Style    string                `form:"style"`
	Floors   int                   `form:"floors"`
	Location string                `form:"location"`
	Weather  string                `form:"weather"`
	APIKey   string                `form:"api_key"`
	Image    *multipart.FileHeader `form:"image"`
}

type Server struct {
	engine    *gin.Engine
	handler   *handler.Handler
	templator *page.Templator
	maxBytes  int64
}

func NewServer(i *do.Injector) (*Server, error) {
	if do.MustInvokeNamed[bool](i, "gin_release") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:    gin.New(),
		handler:   do.MustInvoke[*handler.Handler](i),
		templator: do.MustInvoke[*page.Templator](i),
		maxBytes:  do.MustInvokeNamed[int64](i, "upload_max_bytes"),
	}

	metricsPath := do.MustInvokeNamed[string](i, "metrics_path")
	s.engine.Use(recovery(), requestID(), accessLog())
	if metricsPath != "" {
		s.engine.Use(instrument())
		s.engine.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	s.engine.GET("/", s.index)
	s.engine.POST("/generate", s.generate)
	s.engine.GET("/healthz", s.health)

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) index(c *gin.Context) {
	s.render(c, http.StatusOK, s.handler.Render(c.Request.Context(), nil))
}

func (s *Server) generate(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes)

	input, err := s.bind(c)
	if err != nil {
		log.FromContextOrDiscard(ctx).Warn("cannot read form", "error", err)
		view := s.handler.Render(ctx, nil)
		view.Error = "錯誤：" + err.Error()

		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.render(c, status, view)
		return
	}

	s.render(c, http.StatusOK, s.handler.Render(ctx, input))
}

func (s *Server) bind(c *gin.Context) (*handler.Input, error) {
	var form generateForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, err
	}

	input := &handler.Input{
		Style:    form.Style,
		Floors:   form.Floors,
		Location: form.Location,
		Weather:  form.Weather,
		APIKey:   form.APIKey,
	}
	if form.Image != nil && form.Image.Size > 0 {
		data, err := readFile(form.Image)
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", form.Image.Filename, err)
		}
		input.Image = data
		input.ImageName = form.Image.Filename
	}
	return input, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) render(c *gin.Context, status int, view page.View) {
	html, err := s.templator.Render(c.Request.Context(), view)
	if err != nil {
		log.FromContextOrDiscard(c.Request.Context()).Error("cannot render page", "error", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, htmlContentType, html)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
