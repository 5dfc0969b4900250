package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	server "reviewgate/internal/adapters/http_server"
	lambdaad "reviewgate/internal/adapters/lambda"
	"reviewgate/internal/adapters/observability"
	"reviewgate/internal/adapters/supabase"
	"reviewgate/internal/app"
	"reviewgate/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	sb, err := supabase.New(cfg.SupabaseURL, cfg.ServiceRole,
		supabase.WithTimeout(cfg.UpstreamTimeout), supabase.WithRPS(cfg.UpstreamRPS))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Supabase client")
	}

	h := &server.Handlers{
		Reviews:      app.NewReviewService(sb),
		Admin:        server.SecretAuthorizer{Secret: cfg.AdminSecret},
		Users:        server.BearerAuthorizer{Verifier: sb},
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	awslambda.Start(lambdaad.Handler(server.Logger(log.Logger)(h.AdminDelete())))
}
