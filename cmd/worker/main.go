package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-orchestrator/internal/analysis"
	"github.com/ignite/outreach-orchestrator/internal/benchmark"
	"github.com/ignite/outreach-orchestrator/internal/config"
	"github.com/ignite/outreach-orchestrator/internal/dispatcher"
	"github.com/ignite/outreach-orchestrator/internal/domain"
	"github.com/ignite/outreach-orchestrator/internal/jobs"
	"github.com/ignite/outreach-orchestrator/internal/maintenance"
	"github.com/ignite/outreach-orchestrator/internal/mailprovider"
	"github.com/ignite/outreach-orchestrator/internal/opstub"
	"github.com/ignite/outreach-orchestrator/internal/pkg/distlock"
	"github.com/ignite/outreach-orchestrator/internal/pkg/logger"
	"github.com/ignite/outreach-orchestrator/internal/ratelimit"
	"github.com/ignite/outreach-orchestrator/internal/repository/postgres"
	"github.com/ignite/outreach-orchestrator/internal/scheduler"
	"github.com/ignite/outreach-orchestrator/internal/sendgate"
	"github.com/ignite/outreach-orchestrator/internal/suppression"
	"github.com/ignite/outreach-orchestrator/internal/tracking"
)

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
	log.Println("outreach-orchestrator worker starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
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

	suppressionStore := suppression.NewStore(suppressionRepo, nil)
	if err := suppressionStore.WarmCache(context.Background(), nil); err != nil {
		log.Printf("suppression cache warm failed: %v", err)
	}

	limiter := ratelimit.New(redisClient)
	gateLimiter := ratelimit.NewGateAdapter(limiter, tenants)

	sender, err := mailprovider.New(context.Background(), cfg.SES)
	if err != nil {
		log.Fatalf("mail provider: %v", err)
	}
	trackingInjector := mailprovider.NewTrackingInjector(cfg.Tracking.BaseURL)

	gate := sendgate.NewGate(offers, suppressionStore, gateLimiter, sender, trackingInjector)
	ingestor := tracking.NewIngestor(offers, gate, suppressionStore)
	cleaner := maintenance.NewCleaner(db)

	reg := analysis.NewRegistry()
	snapshots := &benchmark.SnapshotService{Repo: benchmarkRepo}
	analysisEngine := analysis.NewEngine(reg, analysisRepo, leads, snapshots, queueStore, tenants)
	benchmarkEngine := benchmark.NewEngine(benchmarkRepo, benchmarkRepo)

	pool := dispatcher.New(queueStore, []domain.QueueName{domain.QueueHigh, domain.QueueNormal, domain.QueueLow}, cfg.Dispatch.Workers)
	pool.Register(domain.JobSendEmail, jobs.SendEmailHandler(offers, gate))
	pool.Register(domain.JobProcessTrackingEvent, jobs.ProcessTrackingEventHandler(ingestor))
	pool.Register(domain.JobAnalyzeLead, analysis.Handler(analysisEngine))
	pool.Register(domain.JobCalculateBenchmarks, benchmark.Handler(benchmarkEngine))
	pool.Register(domain.JobExpireProposals, jobs.ExpireProposalsHandler(gate))
	pool.Register(domain.JobCheckSSL, jobs.CheckSSLHandler(cleaner))
	pool.Register(domain.JobCleanupOldData, jobs.CleanupOldDataHandler(cleaner))
	pool.Register(domain.JobGenerateProposal, jobs.GenerateProposalHandler(opstub.ProposalGenerator{}))
	pool.Register(domain.JobGenerateOffer, jobs.GenerateOfferHandler(opstub.OfferGenerator{}))
	pool.Register(domain.JobSyncCompanyByICO, jobs.SyncCompanyByICOHandler(opstub.CompanySyncer{}))
	pool.Register(domain.JobDiscoverLeads, jobs.DiscoverLeadsHandler(opstub.LeadDiscoverer{}))
	pool.Register(domain.JobTakeScreenshot, jobs.TakeScreenshotHandler(opstub.Screenshotter{}))
	pool.Register(domain.JobBatchDiscovery, jobs.BatchDiscoveryHandler(leads, queueStore))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start()
	log.Printf("dispatcher started with %d workers", cfg.Dispatch.Workers)

	go recoverStaleLoop(ctx, queueStore, cfg.Dispatch)

	if queueURL := os.Getenv("TRACKING_EVENTS_QUEUE_URL"); queueURL != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.SES.AccessKey, cfg.SES.SecretKey, "")
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.SES.Region),
			awsconfig.WithCredentialsProvider(creds),
		)
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		consumer := tracking.NewSQSConsumer(sqs.NewFromConfig(awsCfg), queueURL, eventRepo)
		go consumer.Run(ctx)
		log.Println("tracking event consumer started")
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		entries := scheduler.DefaultEntries(jobs.BatchDiscoveryBody(leads))
		sched = scheduler.New(queueStore, entries)
		sched.Depths = queueStore
		sched.LockFactory = func(entryName string) distlock.DistLock {
			return distlock.NewLock(redisClient, db, "scheduler:"+entryName, 5*time.Minute)
		}
		sched.Start()
		log.Println("scheduler started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down worker")
	cancel()
	if sched != nil {
		sched.Stop()
	}
	pool.Stop()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func recoverStaleLoop(ctx context.Context, store interface {
	RecoverStale(ctx context.Context, leaseTimeout time.Duration) (int, error)
}, cfg config.DispatchConfig) {
	interval := time.Duration(cfg.RecoverIntervalSecs) * time.Second
	lease := time.Duration(cfg.LeaseSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.RecoverStale(ctx, lease)
			if err != nil {
				log.Printf("recover stale jobs failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("recovered %d stale jobs", n)
			}
		}
	}
}
