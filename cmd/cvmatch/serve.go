package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/med-zino/cvmatch/internal/analysis"
	"github.com/med-zino/cvmatch/internal/config"
	"github.com/med-zino/cvmatch/internal/db"
	"github.com/med-zino/cvmatch/internal/jobsearch"
	"github.com/med-zino/cvmatch/internal/llm"
	"github.com/med-zino/cvmatch/internal/matching"
	"github.com/med-zino/cvmatch/internal/pipeline"
	"github.com/med-zino/cvmatch/internal/rategate"
	"github.com/med-zino/cvmatch/internal/server"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes auth, saved jobs, subscriber, and streamed CV matching endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by env and flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.JSearchAPIKey == "" {
		return fmt.Errorf("JSEARCH_API_KEY environment variable is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to create reasoning client: %w", err)
	}

	runner := buildRunner(cfg, llmClient, rategate.New(db.GateStore{DB: database}, cfg.RateWindow()))

	srv, err := server.New(server.Config{
		Port:              cfg.PortOrDefault(),
		Store:             database,
		Runner:            runner,
		JWTService:        server.NewJWTService(jwtCfg),
		Users:             server.NewUserService(database, pwCfg),
		MaxConcurrentRuns: cfg.ConcurrentRunCap(),
		RunTimeout:        cfg.RunTimeout(),
		OnShutdown: func() {
			_ = llmClient.Close()
			database.Close()
		},
	})
	if err != nil {
		_ = llmClient.Close()
		database.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// buildRunner wires the pipeline collaborators from config.
func buildRunner(cfg *config.Config, llmClient llm.Client, gate *rategate.Gate) *pipeline.Runner {
	var searchOpts []jobsearch.Option
	if len(cfg.SkillVocabulary) > 0 {
		searchOpts = append(searchOpts, jobsearch.WithVocabulary(jobsearch.Vocabulary(cfg.SkillVocabulary)))
	}

	ranker := matching.NewRanker(llmClient, cfg.CallTimeout())
	retrier := matching.NewRetrier(ranker, cfg.RetryAttempts, cfg.RetryDelay())
	scheduler := matching.NewScheduler(retrier, cfg.BatchSize, cfg.MaxListings)

	return pipeline.NewRunner(pipeline.RunnerConfig{
		Analyzer:    analysis.NewAnalyzer(llmClient, cfg.CallTimeout()),
		Searcher:    jobsearch.NewClient(cfg.JSearchAPIKey, searchOpts...),
		Scheduler:   scheduler,
		Gate:        gate,
		BatchSize:   cfg.BatchSize,
		MaxListings: cfg.MaxListings,
	})
}
