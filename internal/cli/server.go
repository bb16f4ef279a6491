package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingua-quiz-service/internal/app"
	"lingua-quiz-service/internal/config"
	"lingua-quiz-service/internal/domain"
	"lingua-quiz-service/internal/infra/memory"
	pgstore "lingua-quiz-service/internal/infra/postgres"
	rediscache "lingua-quiz-service/internal/infra/redis"
	transport "lingua-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz submission server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var submissions app.SubmissionRepository
	var scores app.ScoreRepository
	if pool != nil {
		submissions = pgstore.NewSubmissionStore(pool)
		scores = pgstore.NewScoreStore(pool)
	} else {
		submissions = memory.NewSubmissionStore()
		scores = memory.NewScoreStore()
	}

	hub := app.NewProgressHub()
	service := app.NewSubmissionService(submissions, scores, hub, cfg.Quiz.MaxAttempts)
	handler := transport.NewHandler(service, quizRepo, submissions, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz submission service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds a few lessons for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-greeting": {
			ID:      "quiz-greeting",
			Prompt:  "How do you greet someone in French?",
			Options: []string{"Bonjour", "Merci", "Au revoir"},
			Key: domain.AnswerKey{
				Type: domain.MultipleChoice,
				Text: "Bonjour",
			},
		},
		"quiz-thanks": {
			ID:     "quiz-thanks",
			Prompt: "Type the French word for 'thank you'.",
			Key: domain.AnswerKey{
				Type: domain.ShortAnswer,
				Text: "Merci",
			},
		},
		"quiz-animals": {
			ID:     "quiz-animals",
			Prompt: "Match each French animal to its English name.",
			Key: domain.AnswerKey{
				Type: domain.Matching,
				Pairs: []domain.MatchPair{
					{Left: "chat", Right: "cat"},
					{Left: "chien", Right: "dog"},
					{Left: "oiseau", Right: "bird"},
				},
			},
		},
	}
}
