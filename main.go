package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/archprompt/internal/config"
	"github.com/dmorgan81/archprompt/internal/handler"
	"github.com/dmorgan81/archprompt/internal/inject"
	"github.com/dmorgan81/archprompt/internal/log"
	"github.com/dmorgan81/archprompt/internal/server"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", os.Getenv("ARCHPROMPT_CONFIG"), "path to a config file")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.New(os.Stderr, log.ParseLevel("")).Error("cannot load config", "error", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.Log.Level))
	ctx := log.NewContext(context.Background(), logger)
	injector := inject.Setup(ctx, cfg)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler, err := do.Invoke[*handler.Handler](injector)
		if err != nil {
			logger.Error("cannot build handler", "error", err)
			os.Exit(1)
		}
		lambda.StartWithOptions(handler.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return
	}

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		logger.Error("cannot build server", "error", err)
		os.Exit(1)
	}

	if err := serve(ctx, cfg, srv, injector); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, s *server.Server, injector *do.Injector) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := log.FromContextOrDiscard(ctx)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), injector.Shutdown())
	})
	return g.Wait()
}
