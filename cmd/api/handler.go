package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	authUsecase "chatsaid-backend/internal/auth/usecase"
	socialDelivery "chatsaid-backend/internal/social/delivery"
	"chatsaid-backend/internal/social/fetcher"
	socialRepo "chatsaid-backend/internal/social/repository"
	"chatsaid-backend/internal/social/scheduler"
	socialUsecase "chatsaid-backend/internal/social/usecase"
	"chatsaid-backend/pkg/ai"
	"chatsaid-backend/pkg/config"
	"chatsaid-backend/pkg/imagegen"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/media"
	"chatsaid-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	authUsecase   authUsecase.AuthUsecase
	socialHandler *socialDelivery.SocialHandler
	scheduler     *scheduler.ImportScheduler
	metrics       *metrics.Collector
	config        *config.Config
	log           *logrus.Logger

	mu     sync.Mutex
	server *http.Server
}

// Services are the wired pieces shared by the HTTP server and the CLI
type Services struct {
	Accounts socialUsecase.AccountUsecase
	Importer *socialUsecase.ImportService
	Drafts   *socialUsecase.DraftService
	Inbound  socialUsecase.InboundEmailUsecase
	Metrics  *metrics.Collector
}

// NewServices builds repositories, collaborators and use cases
func NewServices(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *Services {
	accounts := socialRepo.NewAccountRepository(db)
	rules := socialRepo.NewImportRuleRepository(db)
	posts := socialRepo.NewSocialPostRepository(db)
	collector := metrics.New()

	// Runtime AI settings, editable through the settings API
	InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)

	drafts := socialUsecase.NewDraftService(accounts, rules, posts, log)
	drafts.SetMetrics(collector)

	// AI summarizer with dynamic config getters for runtime updates
	aiLog := logger.Component(log, "ai")
	summarizer, err := ai.NewSummarizer(ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiApiKey,
		GetOllamaBaseURL: GetRuntimeOllamaBaseURL,
		GetOllamaModel:   GetRuntimeOllamaModel,
	}, aiLog)
	if err != nil {
		aiLog.WithError(err).Warn("Failed to initialize AI service, drafts will not be summarized")
	} else {
		drafts.SetSummarizer(summarizer)
		aiLog.WithField("provider", cfg.AIProvider).Info("AI service initialized (dynamic config enabled)")
	}

	if cfg.ImageAPIURL != "" {
		var uploader media.Uploader
		if cfg.MediaEndpoint != "" {
			store, err := media.NewStore(context.Background(), media.Config{
				Endpoint:  cfg.MediaEndpoint,
				AccessKey: cfg.MediaAccessKey,
				SecretKey: cfg.MediaSecretKey,
				Bucket:    cfg.MediaBucket,
				UseSSL:    cfg.MediaUseSSL,
			})
			if err != nil {
				log.WithError(err).Warn("Media storage unavailable, inline generated images will fail")
			} else {
				uploader = store
			}
		}
		drafts.SetImageGenerator(imagegen.NewClient(imagegen.Config{
			BaseURL: cfg.ImageAPIURL,
			APIKey:  cfg.ImageAPIKey,
			Model:   cfg.ImageModel,
		}, uploader))
	} else {
		log.Info("IMAGE_API_URL not set, image generation disabled")
	}

	registry := fetcher.NewRegistry(&http.Client{Timeout: cfg.FetchTimeout})
	importer := socialUsecase.NewImporter(accounts, rules, posts, registry, drafts, log)
	importer.SetMetrics(collector)

	return &Services{
		Accounts: socialUsecase.NewAccountUsecase(accounts, rules, posts),
		Importer: importer,
		Drafts:   drafts,
		Inbound:  socialUsecase.NewInboundEmailUsecase(accounts, rules, posts, drafts, log),
		Metrics:  collector,
	}
}

func NewHandler(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *Handler {
	svc := NewServices(db, cfg, log)
	socialHandler := socialDelivery.NewSocialHandler(svc.Accounts, svc.Importer, svc.Drafts, svc.Inbound)

	return &Handler{
		authUsecase:   authUsecase.NewAuthUsecase(cfg.JWTSecret),
		socialHandler: socialHandler,
		scheduler:     scheduler.NewImportScheduler(svc.Importer, cfg.ImportInterval, log),
		metrics:       svc.Metrics,
		config:        cfg,
		log:           log,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.Component(h.log, "http")), h.metrics.Middleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Inbound-Token")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.socialHandler, h.metrics, h.config)
	return r
}

// Start runs the scheduler and serves HTTP until Shutdown
func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	h.scheduler.Start()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the scheduler and drains in-flight requests
func (h *Handler) Shutdown(ctx context.Context) error {
	h.scheduler.Stop()
	h.mu.Lock()
	srv := h.server
	h.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}
