package server

import (
	"context"
	"net/http"
	"time"

	"github.com/getOrdira/ordira-voting/internal/admission"
	"github.com/getOrdira/ordira-voting/internal/batch"
	"github.com/getOrdira/ordira-voting/internal/circuitbreaker"
	"github.com/getOrdira/ordira-voting/internal/config"
	"github.com/getOrdira/ordira-voting/internal/counter"
	"github.com/getOrdira/ordira-voting/internal/handler"
	"github.com/getOrdira/ordira-voting/internal/ledger"
	"github.com/getOrdira/ordira-voting/internal/middleware"
	"github.com/getOrdira/ordira-voting/internal/policy"
	"github.com/getOrdira/ordira-voting/internal/repository"
	"github.com/getOrdira/ordira-voting/internal/service"
	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	redis       *storage.RedisClient
	postgres    *storage.Postgres
	coordinator *batch.Coordinator
	sweeper     *batch.Sweeper
	prober      *ledger.Prober
	httpServer  *http.Server

	voteHandler     *handler.VoteHandler
	proposalHandler *handler.ProposalHandler
	authHandler     *handler.AuthHandler
	adminHandler    *handler.AdminHandler
	systemHandler   *handler.SystemHandler
	authService     *service.AuthService
	admissionCtrl   *admission.Controller
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Repositories
	intentRepo := repository.NewVoteIntentRepository(postgres)
	proposalRepo := repository.NewProposalRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)
	tierRepo := repository.NewPlanTierRepository(postgres)
	batchRepo := repository.NewBatchRecordRepository(postgres)
	logRepo := repository.NewRequestLogRepository(postgres)

	// Admission pipeline
	counters := counter.NewRedisStore(redis)
	resolver := policy.NewResolver(
		repository.NewPolicySource(userRepo, tierRepo),
		time.Duration(cfg.Admission.CacheTTLSeconds)*time.Second,
		cfg.Admission.CacheMaxEntries,
	)
	admissionCtrl := admission.NewController(counters, resolver)

	// Ledger pipeline
	gateway := ledger.NewHTTPGateway(cfg.Ledger.BaseURL, cfg.Ledger.APIKey,
		time.Duration(cfg.Ledger.TimeoutSeconds)*time.Second)
	breaker := circuitbreaker.New(circuitbreaker.Config{
		MaxFailures: cfg.Ledger.BreakerMaxFailures,
		OpenFor:     time.Duration(cfg.Ledger.BreakerOpenSeconds) * time.Second,
	})
	coordinator := batch.NewCoordinator(intentRepo, proposalRepo, batchRepo, gateway, breaker, cfg.Batch.Threshold)
	sweeper := batch.NewSweeper(intentRepo, coordinator, batch.SweeperConfig{
		Interval:     time.Duration(cfg.Batch.SweepIntervalSeconds) * time.Second,
		ClaimTimeout: time.Duration(cfg.Batch.ClaimTimeoutMinutes) * time.Minute,
		Retention:    time.Duration(cfg.Batch.RetentionHours) * time.Hour,
	})
	prober := ledger.NewProber(cfg.Ledger.BaseURL, ledger.ProberConfig{
		Interval: time.Duration(cfg.Ledger.ProbeIntervalSeconds) * time.Second,
	})

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	proposalService := service.NewProposalService(proposalRepo, intentRepo)
	voteService := service.NewVoteService(intentRepo, proposalRepo, userRepo)
	analyticsService := service.NewAnalyticsService(logRepo)

	middleware.InitRequestLogger(logRepo, 1000)

	s := &Server{
		router:          router,
		config:          cfg,
		redis:           redis,
		postgres:        postgres,
		coordinator:     coordinator,
		sweeper:         sweeper,
		prober:          prober,
		authService:     authService,
		admissionCtrl:   admissionCtrl,
		voteHandler:     handler.NewVoteHandler(voteService, proposalService, coordinator),
		proposalHandler: handler.NewProposalHandler(proposalService),
		authHandler:     handler.NewAuthHandler(authService),
		adminHandler:    handler.NewAdminHandler(userRepo, tierRepo, batchRepo, resolver, analyticsService),
		systemHandler:   handler.NewSystemHandler(postgres, redis, prober, breaker, coordinator),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.systemHandler.Health)

	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	// Voting is the costly path: everything here ends up on the ledger,
	// so it runs behind the admission controller.
	votes := s.router.Group("/votes")
	votes.Use(middleware.RequireAuth(s.authService))
	{
		votes.POST("", middleware.Admit(s.admissionCtrl, "votes", s.config.Admission.SkipPaths), s.voteHandler.Submit)
		votes.POST("/force-submit", s.voteHandler.ForceSubmit)
	}

	proposals := s.router.Group("/proposals")
	proposals.Use(middleware.RequireAuth(s.authService))
	{
		proposals.POST("", s.proposalHandler.Create)
		proposals.GET("/:id", s.proposalHandler.Get)
		proposals.POST("/:id/activate", s.proposalHandler.Activate)
		proposals.POST("/:id/complete", s.proposalHandler.Complete)
		proposals.POST("/:id/cancel", s.proposalHandler.Cancel)
	}

	s.router.GET("/businesses/:businessId/proposals",
		middleware.RequireAuth(s.authService), s.proposalHandler.ListByBusiness)

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(s.authService))
	{
		admin.GET("/status", s.systemHandler.Status)
		admin.POST("/breaker/reset", s.systemHandler.ResetBreaker)
		admin.GET("/tiers", s.adminHandler.ListTiers)
		admin.PUT("/tiers/:name", s.adminHandler.UpsertTier)
		admin.PATCH("/users/:id/tier", s.adminHandler.UpdateUserTier)
		admin.GET("/batches/released", s.adminHandler.ListReleasedBatches)
		admin.GET("/analytics/summary", s.adminHandler.AnalyticsSummary)
	}
}

func (s *Server) Run(addr string) error {
	s.sweeper.Start()
	s.prober.Start()

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	s.prober.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
