package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "reviewgate/internal/adapters/http_server"
	"reviewgate/internal/adapters/observability"
	"reviewgate/internal/adapters/supabase"
	"reviewgate/internal/app"
	"reviewgate/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	// deps
	sb, err := supabase.New(cfg.SupabaseURL, cfg.ServiceRole,
		supabase.WithTimeout(cfg.UpstreamTimeout), supabase.WithRPS(cfg.UpstreamRPS))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Supabase client")
	}
	svc := app.NewReviewService(sb)

	// http
	srv := server.New(cfg.RequestTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Reviews:      svc,
		Admin:        server.SecretAuthorizer{Secret: cfg.AdminSecret},
		Users:        server.BearerAuthorizer{Verifier: sb},
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	servers := []*http.Server{{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, observability.NewMetricsServer(cfg.MetricsAddr, reg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		s := s
		g.Go(func() error {
			log.Info().Str("addr", s.Addr).Msg("listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var firstErr error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("shutdown complete")
}
