package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-orchestrator/internal/analysis"
	"github.com/ignite/outreach-orchestrator/internal/benchmark"
	"github.com/ignite/outreach-orchestrator/internal/config"
	"github.com/ignite/outreach-orchestrator/internal/dispatcher"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/httpapi"
	"github.com/ignite/outreach-orchestrator/internal/jobs"
	"github.com/ignite/outreach-orchestrator/internal/mailprovider"
	"github.com/ignite/outreach-orchestrator/internal/opstub"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
	"github.com/ignite/outreach-orchestrator/internal/proposal"
	"github.com/ignite/outreach-orchestrator/internal/ratelimit"
	"github.com/ignite/outreach-orchestrator/internal/repository/postgres"
	"github.com/ignite/outreach-orchestrator/internal/sendgate"
	suppressionsvc "github.com/ignite/outreach-orchestrator/internal/service/suppression"
	"github.com/ignite/outreach-orchestrator/internal/suppression"
	"github.com/ignite/outreach-orchestrator/internal/tracking"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func main() {
	log.Println("outreach-orchestrator API server starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("pre-flight check failed: %v", err)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	tenants := postgres.NewTenantRepo(db)
	leads := postgres.NewLeadRepo(db)
	offers := postgres.NewOfferRepo(db)
	analysisRepo := postgres.NewAnalysisRepo(db)
	benchmarkRepo := postgres.NewBenchmarkRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	queueStore := postgres.NewQueueRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	issueRegistry := postgres.NewIssueRegistryRepo(db)

	suppressionStore := suppression.NewStore(suppressionRepo, nil)
	if err := suppressionStore.WarmCache(context.Background(), nil); err != nil {
		log.Printf("suppression cache warm failed: %v", err)
	}
	suppressionSvc := suppressionsvc.NewService(suppressionRepo)
	if err := suppressionSvc.WarmCache(context.Background(), nil); err != nil {
		log.Printf("suppression service cache warm failed: %v", err)
	}

	limiter := ratelimit.New(redisClient)
	gateLimiter := ratelimit.NewGateAdapter(limiter, tenants)

	sender, err := mailprovider.New(context.Background(), cfg.SES)
	if err != nil {
		log.Fatalf("mail provider: %v", err)
	}
	trackingInjector := mailprovider.NewTrackingInjector(cfg.Tracking.BaseURL)

	gate := sendgate.NewGate(offers, suppressionStore, gateLimiter, sender, trackingInjector)

	var eventLogger tracking.EventLogger = eventRepo
	if queueURL := os.Getenv("TRACKING_EVENTS_QUEUE_URL"); queueURL != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.SES.AccessKey, cfg.SES.SecretKey, "")
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.SES.Region),
			awsconfig.WithCredentialsProvider(creds),
		)
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		eventLogger = tracking.NewSQSPublisher(sqs.NewFromConfig(awsCfg), queueURL)
	}

	ingestor := tracking.NewIngestor(offers, gate, suppressionStore)
	ingestor.Events = eventLogger

	proposals := proposal.NewService(offers, tenants, gate)

	reg := analysis.NewRegistry()
	snapshots := &benchmark.SnapshotService{Repo: benchmarkRepo}
	analysisEngine := analysis.NewEngine(reg, analysisRepo, leads, snapshots, queueStore, tenants)
	benchmarkEngine := benchmark.NewEngine(benchmarkRepo, benchmarkRepo)

	jobHandlers := map[domain.JobKind]dispatcher.Handler{
		domain.JobSendEmail:           jobs.SendEmailHandler(offers, gate),
		domain.JobAnalyzeLead:         analysis.Handler(analysisEngine),
		domain.JobCalculateBenchmarks: benchmark.Handler(benchmarkEngine),
		domain.JobGenerateProposal:    jobs.GenerateProposalHandler(opstub.ProposalGenerator{}),
		domain.JobGenerateOffer:       jobs.GenerateOfferHandler(opstub.OfferGenerator{}),
		domain.JobSyncCompanyByICO:    jobs.SyncCompanyByICOHandler(opstub.CompanySyncer{}),
		domain.JobDiscoverLeads:       jobs.DiscoverLeadsHandler(opstub.LeadDiscoverer{}),
		domain.JobTakeScreenshot:      jobs.TakeScreenshotHandler(opstub.Screenshotter{}),
		domain.JobExpireProposals:     jobs.ExpireProposalsHandler(gate),
	}

	handlers := &httpapi.Handlers{
		Offers:      offers,
		Gate:        gate,
		Tenants:     tenants,
		Leads:       leads,
		Analyses:    analysisRepo,
		Benchmarks:  benchmarkRepo,
		Proposals:   proposals,
		Limiter:     limiter,
		Queue:       queueStore,
		JobHandlers: jobHandlers,
		Issues:      issueRegistry,

		SuppressionSvc: suppressionSvc,
	}

	router := chi.NewRouter()
	router.Mount("/", handlers.Routes())
	router.Mount("/", ingestor.Routes())
	router.Post("/webhooks/ses", ingestor.WebhookHandler())
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-done
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
