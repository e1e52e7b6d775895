package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/config"
	"anoa.com/jobapp/internal/entity"
	"anoa.com/jobapp/internal/middleware"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/mailer"
	"anoa.com/jobapp/pkg/metrics"
	"anoa.com/jobapp/pkg/ratelimiter"
	"anoa.com/jobapp/pkg/response"

	adminHttp "anoa.com/jobapp/internal/modules/admin/delivery/http"
	adminService "anoa.com/jobapp/internal/modules/admin/service"

	applicationHttp "anoa.com/jobapp/internal/modules/application/delivery/http"
	applicationRepo "anoa.com/jobapp/internal/modules/application/repository"
	applicationService "anoa.com/jobapp/internal/modules/application/service"

	offerHttp "anoa.com/jobapp/internal/modules/offer/delivery/http"
	offerRepo "anoa.com/jobapp/internal/modules/offer/repository"
	offerService "anoa.com/jobapp/internal/modules/offer/service"

	searchService "anoa.com/jobapp/internal/modules/search/service"

	userHttp "anoa.com/jobapp/internal/modules/user/delivery/http"
	userRepo "anoa.com/jobapp/internal/modules/user/repository"
	userService "anoa.com/jobapp/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewServer wires repositories, services and handlers. redisClient may be nil,
// which disables rate limiting; an empty MeiliSearchHost disables the offer index.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mail mailer.Mailer, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.JWTExpiration,
		Claims: auth.ClaimMode(cfg.JWTClaims),
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	registry := metrics.NewRegistry()
	appMetrics := metrics.New(registry)

	var offerSearch searchService.OfferSearchService
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		offerSearch = searchService.NewOfferSearchService(meiliClient, logger)
	} else {
		logger.Info("meilisearch host not configured, offer search disabled")
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	limiter := ratelimiter.NewRedisLimiter(redisClient)

	userRepo := userRepo.NewUserRepository(db)
	offerRepo := offerRepo.NewOfferRepository(db)
	applicationRepo := applicationRepo.NewApplicationRepository(db)

	registrar := userService.NewRegistrar(userRepo, hasher)
	authSvc := userService.NewAuthService(userRepo, registrar, hasher, tokens, offerSearch, appMetrics, logger)
	credentialSvc := userService.NewCredentialService(userRepo, hasher, mail, limiter, cfg.RateLimitPasswordReset, appMetrics, logger)
	authHandler := userHttp.NewAuthHandler(authSvc, credentialSvc)

	adminSvc := adminService.NewAdminService(userRepo, offerRepo, registrar, hasher, offerSearch, logger)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	offerSvc := offerService.NewOfferService(offerRepo, userRepo, applicationRepo, offerSearch, appMetrics, logger)
	offerHandler := offerHttp.NewOfferHandler(offerSvc)

	applicationSvc := applicationService.NewApplicationService(applicationRepo, offerRepo, userRepo, mail, appMetrics, logger)
	applicationHandler := applicationHttp.NewApplicationHandler(applicationSvc)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, tokens, logger)
	policy := middleware.NewPolicy(appMetrics,
		middleware.Public("/health"),
		middleware.Public("/metrics"),
		middleware.Public("/api/auth/login"),
		middleware.Public("/api/auth/register"),
		middleware.Public("/api/auth/forgot-password"),
		middleware.RequireRole("/api/admin", entity.RoleAdmin),
		middleware.RequireRole("/api/company", entity.RoleCompany),
		middleware.RequireRole("/api/offers", entity.RoleStudent),
		middleware.RequireRole("/api/applications", entity.RoleStudent),
	)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 2 * applicationHttp.MaxDocumentSize

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(appMetrics.Middleware())
	router.Use(authMiddleware.Authenticate())
	router.Use(policy.Authorize())

	router.NoMethod(func(c *gin.Context) {
		response.ResponseError(c, fmt.Errorf("%s is not supported on this route: %w", c.Request.Method, apperror.ErrMethodNotAllowed))
	})
	router.NoRoute(func(c *gin.Context) {
		response.ResponseError(c, apperror.New(http.StatusNotFound, "route not found", nil))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.PUT("/change-password", authHandler.ChangePassword)
	}

	adminGroup := api.Group("/admin")
	{
		adminGroup.POST("/users", adminHandler.CreateUser)
		adminGroup.GET("/users", adminHandler.GetAllUsers)
		adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
		adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
	}

	companyGroup := api.Group("/company")
	{
		companyGroup.GET("/offers", offerHandler.GetCompanyOffers)
		companyGroup.POST("/offers", offerHandler.CreateOffer)
		companyGroup.PUT("/offers/:id", offerHandler.UpdateOffer)
		companyGroup.DELETE("/offers/:id", offerHandler.DeleteOffer)
	}

	offerGroup := api.Group("/offers")
	{
		offerGroup.GET("", offerHandler.GetAllOffers)
		offerGroup.GET("/:id", offerHandler.GetOfferByID)
		offerGroup.POST("/:id/apply", applicationHandler.Apply)
	}

	api.GET("/applications/me", applicationHandler.GetMyApplications)

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the redis client and the database pool.
func (s *Server) Close() error {
	var errs []error
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
