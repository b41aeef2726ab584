package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"movietype-quiz/internal/auth"
	"movietype-quiz/internal/narrative"
	"movietype-quiz/internal/notify"
	"movietype-quiz/internal/quiz"
	"movietype-quiz/internal/result"
	"movietype-quiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET is not set, using the development secret")
	}
	tokens := auth.NewManager(cfg.SessionSecret)
	svc := quiz.NewService(
		st,
		result.NewAssembler(gen, cfg.Narrative.Timeout, logger.Named("result")),
		notify.NewLogNotifier(logger.Named("notify")),
		tokens,
		logger.Named("quiz"),
		quiz.Options{StrictCompletion: cfg.StrictCompletion},
	)
	srv := server.New(svc, st, narrative.NewTypeCatalog(gen, cfg.Narrative.Timeout, logger.Named("types")), tokens, logger.Named("http"), server.Options{
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	logger.Info("starting",
		zap.String("driver", cfg.Database.Driver),
		zap.String("narrative", cfg.Narrative.Provider),
		zap.Bool("strict_completion", cfg.StrictCompletion))
	return server.Run(ctx, cfg.Port, srv.Routes(), logger)
}
