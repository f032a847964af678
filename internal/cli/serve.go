package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiz-mastro/quizmastro/internal/activity"
	"github.com/quiz-mastro/quizmastro/internal/ai"
	api "github.com/quiz-mastro/quizmastro/internal/api/http"
	"github.com/quiz-mastro/quizmastro/internal/auth"
	"github.com/quiz-mastro/quizmastro/internal/config"
	"github.com/quiz-mastro/quizmastro/internal/db"
	"github.com/quiz-mastro/quizmastro/internal/logging"
	"github.com/quiz-mastro/quizmastro/internal/quiz"
	"github.com/quiz-mastro/quizmastro/internal/roster"
	"github.com/quiz-mastro/quizmastro/internal/storage"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(logging.ParseLevel(cfg.LogLevel))

	var (
		quizStore   quiz.Store
		rosterStore roster.Store
		actLog      activity.Log
	)
	switch cfg.StoreDriver {
	case "fs":
		kv, err := storage.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("fs store: %w", err)
		}
		bs, err := quiz.NewBlobStore(kv)
		if err != nil {
			return fmt.Errorf("blob store: %w", err)
		}
		quizStore = bs
		rosterStore = roster.NewBlobStore(kv)
		actLog = activity.NewMemoryLog()
	case "sqlite", "postgres":
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		dbh, err := db.Open(openCtx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()
		quizStore = quiz.NewSQLStore(dbh)
		rosterStore = roster.NewSQLStore(dbh)
		actLog = activity.NewSQLLog(dbh)
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	registry := roster.NewRegistry(rosterStore, actLog)
	svc := quiz.NewService(quizStore, registry, log, quiz.WithActivityLog(actLog))
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenDuration())

	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel,
			&http.Client{Timeout: 90 * time.Second})
	} else {
		log.Warn("no AI api key configured, generation endpoints disabled")
	}

	router := api.NewRouter(api.Deps{
		Quizzes:     svc,
		Roster:      registry,
		Activity:    actLog,
		Auth:        authSvc,
		Admin:       auth.AdminAccount{Username: cfg.AdminUser, Hash: cfg.AdminPassHash},
		AI:          aiClient,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Published quizzes pass their end time even while nobody is looking at
	// them; a background sweep keeps statuses moving.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-tick.C:
				if err := svc.CheckAllQuizStatuses(sweepCtx); err != nil {
					log.Error("status sweep failed", "err", err)
				}
			}
		}
	}()

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down")
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
