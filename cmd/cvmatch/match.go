package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/med-zino/cvmatch/internal/config"
	"github.com/med-zino/cvmatch/internal/llm"
	"github.com/med-zino/cvmatch/internal/observability"
	"github.com/med-zino/cvmatch/internal/pipeline"
	"github.com/med-zino/cvmatch/internal/rategate"
	"github.com/med-zino/cvmatch/internal/types"
)

var (
	matchConfigPath      string
	matchCVPath          string
	matchQuery           string
	matchDatePosted      string
	matchWorkFromHome    string
	matchJobRequirements string
	matchEmploymentTypes string
	matchJSON            bool
	matchVerbose         bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run one CV match end-to-end from the command line",
	Long: `Analyzes a CV file, searches live listings for the query, and ranks them,
printing progress as it goes. The per-user cooldown does not apply to CLI runs.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchConfigPath, "config", "", "Path to config.json file")
	matchCmd.Flags().StringVar(&matchCVPath, "cv", "", "Path to CV text file (required)")
	matchCmd.Flags().StringVarP(&matchQuery, "query", "q", "", "Job search query (required)")
	matchCmd.Flags().StringVar(&matchDatePosted, "date-posted", "", "Filter: date_posted (e.g. today, week, month)")
	matchCmd.Flags().StringVar(&matchWorkFromHome, "remote", "", "Filter: work_from_home (true/false)")
	matchCmd.Flags().StringVar(&matchJobRequirements, "job-requirements", "", "Filter: job_requirements")
	matchCmd.Flags().StringVar(&matchEmploymentTypes, "employment-types", "", "Filter: employment_types (e.g. FULLTIME)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print the final result as raw JSON")
	matchCmd.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Print detailed progress information")

	_ = matchCmd.MarkFlagRequired("cv")
	_ = matchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(matchConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.JSearchAPIKey == "" {
		return fmt.Errorf("JSEARCH_API_KEY environment variable is required")
	}

	cvText, err := os.ReadFile(matchCVPath)
	if err != nil {
		return fmt.Errorf("failed to read CV file: %w", err)
	}

	ctx := context.Background()

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create reasoning client: %w", err)
	}
	defer func() { _ = llmClient.Close() }()

	// No cooldown for one-shot runs: a zero window disables the gate.
	runner := buildRunner(cfg, llmClient, rategate.New(nil, 0))

	req := types.FindMatchesRequest{
		Query:  matchQuery,
		CVText: string(cvText),
		UserID: "cli",
		Filters: types.SearchFilters{
			DatePosted:      matchDatePosted,
			WorkFromHome:    matchWorkFromHome,
			JobRequirements: matchJobRequirements,
			EmploymentTypes: matchEmploymentTypes,
		},
	}

	printer := observability.NewPrinter(os.Stdout)
	var report *types.MatchReport

	emit := func(ev pipeline.Event) error {
		switch ev.Status {
		case pipeline.StageComplete:
			report = ev.Result
		case pipeline.StageError:
			fmt.Fprintf(os.Stderr, "Error: %s\n", ev.Message)
		default:
			if ev.Message != "" {
				fmt.Fprintln(os.Stdout, ev.Message)
			}
			if matchVerbose && ev.CVAnalysis != nil {
				printer.PrintResumeProfile(ev.CVAnalysis)
			}
		}
		return nil
	}

	if err := runner.Run(ctx, req, emit); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("run finished without a result")
	}

	if matchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printer.PrintMatches(report.JobMatches)
	printer.PrintReport(report)
	return nil
}
