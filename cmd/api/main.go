package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sowdesk/sowdesk-backend/config"
	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/bootstrap"
	"github.com/sowdesk/sowdesk-backend/internal/chat"
	"github.com/sowdesk/sowdesk-backend/internal/deals/hubspot"
	dealsrepo "github.com/sowdesk/sowdesk-backend/internal/deals/repository"
	dealsvc "github.com/sowdesk/sowdesk-backend/internal/deals/service"
	"github.com/sowdesk/sowdesk-backend/internal/files"
	genrepo "github.com/sowdesk/sowdesk-backend/internal/generation/repository"
	gensvc "github.com/sowdesk/sowdesk-backend/internal/generation/service"
	notifrepo "github.com/sowdesk/sowdesk-backend/internal/notifications/repository"
	notifsvc "github.com/sowdesk/sowdesk-backend/internal/notifications/service"
	"github.com/sowdesk/sowdesk-backend/internal/storage/postgres"
	"github.com/sowdesk/sowdesk-backend/internal/tco"
	tcohttp "github.com/sowdesk/sowdesk-backend/internal/tco/http"
	tcopricing "github.com/sowdesk/sowdesk-backend/internal/tco/pricing"
	tcostorage "github.com/sowdesk/sowdesk-backend/internal/tco/storage"
	tmplrepo "github.com/sowdesk/sowdesk-backend/internal/templates/repository"
	"github.com/sowdesk/sowdesk-backend/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      postgres.DSN(&cfg.Database),
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var verifier *auth.Verifier
	if cfg.Auth.JWKSURL != "" {
		verifier, err = auth.NewVerifier(&cfg.Auth)
		if err != nil {
			log.Fatalf("auth verifier: %v", err)
		}
		defer verifier.Close()
	} else {
		log.Println("AUTH_JWKS_URL not set, running with header-based dev auth")
	}

	// Deals: CRM mirror + nightly sync.
	dealRepo := dealsrepo.NewDealRepository(pool)
	crm := hubspot.NewClient(cfg.CRM.BaseURL, cfg.CRM.Token)
	dealService := dealsvc.NewDealService(dealRepo, crm)

	scheduler := dealsvc.NewScheduler(dealService)
	scheduler.Start(cfg.CRM.SyncSchedule)
	defer scheduler.Stop()

	// Notifications.
	notifRepo := notifrepo.NewNotificationRepository(pool)
	notifService := notifsvc.NewNotificationService(notifRepo)

	// Generation: orchestrator client, run state, dual-channel completion.
	runRepo := genrepo.NewRunRepository(rdb)
	orchestrator := gensvc.NewOrchestratorClient(cfg.Orchestrator.BaseURL)
	genService := gensvc.NewGenerationService(
		runRepo, orchestrator, notifService, dealService,
		cfg.Orchestrator.CallbackURL, cfg.Orchestrator.CallbackSecret,
	)

	poller := gensvc.NewPoller(genService, cfg.Orchestrator.PollInterval)
	go poller.Run(ctx)

	// Templates.
	templateRepo := tmplrepo.NewTemplateRepository(sqlDB)

	// Users.
	userRepo := users.NewRepo(pool)

	// Files: presigned S3 access.
	s3Client, err := files.NewS3Client(ctx, cfg.Files.Region)
	if err != nil {
		log.Fatalf("s3 client: %v", err)
	}
	presigner := files.NewPresigner(s3Client, cfg.Files.Bucket, cfg.Files.PresignTO)

	// TCO price cache.
	priceStore := tcostorage.NewPriceStore(pool)
	var refresher tcohttp.Refresher
	if pricingClient, err := tcopricing.NewPricingClient(ctx); err != nil {
		log.Printf("pricing client unavailable, TCO refresh disabled: %v", err)
	} else {
		fetcher := tcopricing.NewAWSFetcher(pricingClient, tcopricing.DefaultFetchConfig())
		refresher = tco.NewService(fetcher, priceStore)
	}

	// Chat proxy.
	ragClient := chat.NewRAGClient(cfg.Chat.RAGBaseURL)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:         "sowdesk-backend",
		Version:             cfg.App.Version,
		DB:                  pool,
		Redis:               rdb,
		Verifier:            verifier,
		DealService:         dealService,
		GenerationService:   genService,
		NotificationService: notifService,
		UserRepo:            userRepo,
		TemplateRepo:        templateRepo,
		Presigner:           presigner,
		PriceStore:          priceStore,
		TCORefresher:        refresher,
		RAGClient:           ragClient,
		CallbackSecret:      cfg.Orchestrator.CallbackSecret,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
