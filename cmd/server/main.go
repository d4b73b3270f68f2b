package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evicite/internal/annotator/pdfmark"
	"evicite/internal/config"
	"evicite/internal/extractor/pdftext"
	"evicite/internal/fetcher/httpfetch"
	"evicite/internal/handler"
	"evicite/internal/oracle"
	"evicite/internal/oracle/claude"
	"evicite/internal/oracle/gemini"
	"evicite/internal/oracle/openai"
	"evicite/internal/port"
	"evicite/internal/repository/postgres"
	"evicite/internal/router"
	"evicite/internal/service"
	s3storage "evicite/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	runRepo := postgres.NewRunRepo(db)
	citationRepo := postgres.NewCitationRepo(db)
	outcomeRepo := postgres.NewOutcomeRepo(db)
	sourceRepo := postgres.NewSourceRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the acquisition and rendering adapters
	fetcher := httpfetch.NewFetcher(
		time.Duration(cfg.Fetcher.TimeoutSecs)*time.Second,
		cfg.Fetcher.UserAgent,
		cfg.Fetcher.MaxFileSizeMB*1024*1024,
	)
	extractor := pdftext.NewExtractor()
	annotator := pdfmark.NewAnnotator(cfg.Highlight.Author)

	// Build the relevance oracle chain: configured providers in fallback
	// order, wrapped with rate-limit-aware retries.
	oracle.RegisterProvider("gemini", func(c *config.OracleProviderConfig) (port.RelevanceOracle, error) {
		return gemini.NewOracle(c), nil
	})
	oracle.RegisterProvider("claude", func(c *config.OracleProviderConfig) (port.RelevanceOracle, error) {
		return claude.NewOracle(c), nil
	})
	oracle.RegisterProvider("openai", func(c *config.OracleProviderConfig) (port.RelevanceOracle, error) {
		return openai.NewOracle(c), nil
	})

	var (
		oracles []port.RelevanceOracle
		names   []string
	)
	for _, pc := range cfg.Oracle.Configured() {
		o, err := oracle.NewOracle(pc)
		if err != nil {
			return fmt.Errorf("failed to initialize oracle provider %q: %w", pc.Provider, err)
		}
		oracles = append(oracles, o)
		names = append(names, pc.Provider)
	}
	if len(oracles) == 0 {
		return fmt.Errorf("no oracle providers configured: set EVICITE_ORACLE_PRIMARY_API_KEY (or a fallback slot)")
	}
	relevanceOracle := oracle.NewRetryOracle(
		oracle.NewFallbackOracle(oracles, names),
		cfg.Pipeline.MaxOracleRetries,
	)

	styles := service.HighlightStyles{}
	styles.Primary.R, styles.Primary.G, styles.Primary.B = config.ParseColor(cfg.Highlight.PrimaryColor)
	styles.Secondary.R, styles.Secondary.G, styles.Secondary.B = config.ParseColor(cfg.Highlight.SecondaryColor)
	styles.Oracle.R, styles.Oracle.G, styles.Oracle.B = config.ParseColor(cfg.Highlight.OracleColor)
	styles.Primary.Opacity = cfg.Highlight.Opacity
	styles.Secondary.Opacity = cfg.Highlight.Opacity
	styles.Oracle.Opacity = cfg.Highlight.Opacity

	// Initialize services
	sourceSvc := service.NewSourceService(fetcher, extractor, s3Client, sourceRepo, cfg.S3.Bucket)
	resolutionSvc := service.NewResolutionService(relevanceOracle)
	annotationSvc := service.NewAnnotationService(annotator, s3Client, sourceRepo, sourceSvc, cfg.S3.Bucket)
	runSvc := service.NewRunService(
		runRepo, citationRepo, outcomeRepo, sourceRepo, s3Client,
		sourceSvc, resolutionSvc, annotationSvc,
		styles, cfg.S3.Bucket, cfg.Pipeline.Concurrency, cfg.S3.PresignExpiry,
	)

	// Initialize handlers
	runH := handler.NewRunHandler(runSvc)
	sourceH := handler.NewSourceHandler(runSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, runH, sourceH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the run worker; it claims pending runs and drives the pipeline.
	worker := service.NewRunWorker(runRepo, runSvc, service.RunWorkerConfig{
		PollInterval: time.Duration(cfg.Pipeline.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Pipeline.Concurrency,
		RunTimeout:   time.Duration(cfg.Pipeline.RunTimeoutSecs) * time.Second,
	})
	workerDone := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(workerDone)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	// Let in-flight runs finish before exiting.
	<-workerDone
	return nil
}
