package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cro-audit/config"
	"cro-audit/heuristics"
	"cro-audit/models"
	"cro-audit/scraper/shopify"
	"cro-audit/services"
	"cro-audit/storage"
	"cro-audit/utils"
)

var (
	cfg    *config.Config
	rubric config.Rubric
	logger = utils.NewLogger()

	rubricPath string
	logLevel   string
	noColor    bool

	skipDB     bool
	csvPath    string
	inputPath  string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:           "cro-audit",
	Short:         "Score Shopify storefront pages against conversion heuristics",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		if cmd.Flags().Changed("rubric") {
			cfg.RubricPath = rubricPath
		}

		var err error
		rubric, err = config.LoadRubric(cfg.RubricPath)
		if err != nil {
			return err
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <url>...",
	Short: "Extract, score, store and report a set of storefront URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAudit,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score previously extracted pages from a JSON file (no browser, no database)",
	RunE:  runScore,
}

var reportCmd = &cobra.Command{
	Use:   "report [crawl-id]",
	Short: "Recompute and print the site score of a stored crawl (latest if omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rubricPath, "rubric", "", "YAML rubric with weights and thresholds (or set RUBRIC_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error (or set LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI colours in the report")

	auditCmd.Flags().BoolVar(&skipDB, "no-db", false, "Skip PostgreSQL persistence")
	auditCmd.Flags().StringVar(&csvPath, "csv", "", "Findings CSV path (default CSV_OUTPUT_PATH)")
	auditCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the crawl report as JSON")

	scoreCmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON array of extracted pages (required)")
	scoreCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the crawl report as JSON")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(auditCmd, scoreCmd, reportCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newEngine() *services.ScoringEngine {
	registry := heuristics.NewDefaultRegistry(rubric.Thresholds, heuristics.WithLogger(logger))
	aggregator := services.NewSiteAggregator(rubric, logger)
	return services.NewScoringEngine(registry, aggregator, cfg.MaxConcurrency, logger)
}

func newCrawlID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	crawlID := newCrawlID()
	logger.Info("=== CRO audit %s starting ===", crawlID)
	logger.Info("Config: urls: %d | concurrency: %d | rate: %dms | viewport: %dx%d",
		len(args), cfg.MaxConcurrency, cfg.RateLimitMs, cfg.ViewportWidth, cfg.ViewportHeight)

	var store storage.EvaluationStore
	if !skipDB {
		ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), utils.RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d, or pass --no-db")
			return err
		}
		defer ps.Close()
		store = ps
	}

	rawPages, err := shopify.New(cfg, logger).Extract(ctx, args)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	pages := services.NewNormalizer(logger).Normalize(crawlID, rawPages)
	if len(pages) == 0 {
		return errors.New("no storefront pages left after normalization")
	}

	report, err := newEngine().ScoreCrawl(ctx, crawlID, pages)
	if err != nil {
		return err
	}

	path := csvPath
	if path == "" {
		path = cfg.CSVOutputPath
	}
	if err := writeFindingsCSV(path, report.Pages); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Findings saved to %s", path)
	}

	if store != nil {
		if err := store.SaveEvaluations(ctx, report); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Crawl %s stored in PostgreSQL", crawlID)
		}
	}

	if outputPath != "" {
		if err := writeJSON(outputPath, report); err != nil {
			return err
		}
	}

	services.NewReportPrinter(os.Stdout, !noColor).Print(report)
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var rawPages []*models.RawPage
	if err := json.Unmarshal(data, &rawPages); err != nil {
		return fmt.Errorf("decode %s: %w", inputPath, err)
	}

	crawlID := newCrawlID()
	pages := services.NewNormalizer(logger).Normalize(crawlID, rawPages)
	report, err := newEngine().ScoreCrawl(ctx, crawlID, pages)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := writeJSON(outputPath, report); err != nil {
			return err
		}
		logger.Info("Report written to %s", outputPath)
	}
	services.NewReportPrinter(os.Stdout, !noColor).Print(report)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), utils.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var crawlID string
	if len(args) == 1 {
		crawlID = args[0]
	} else if crawlID, err = store.LatestCrawl(ctx); err != nil {
		return err
	}

	evals, err := store.LoadEvaluations(ctx, crawlID)
	if err != nil {
		return err
	}
	pages, err := store.LoadPages(ctx, crawlID)
	if err != nil {
		return err
	}

	aggregator := services.NewSiteAggregator(rubric, logger)
	report := services.BuildReport(crawlID, pages, evals, aggregator, time.Now())
	services.NewReportPrinter(os.Stdout, !noColor).Print(report)
	return nil
}

func writeFindingsCSV(path string, pages []*models.Page) error {
	csvw, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	var w storage.FindingWriter = csvw
	if err := w.WriteFindings(pages); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
