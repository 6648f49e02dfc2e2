package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/config"
	"github.com/kaze3114/castket/backend/internal/infra/httpclient"
	s3infra "github.com/kaze3114/castket/backend/internal/infra/s3"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
	redrepo "github.com/kaze3114/castket/backend/internal/repo/redis"
	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	"github.com/kaze3114/castket/backend/internal/services/classifier"
	eventsvc "github.com/kaze3114/castket/backend/internal/services/events"
	feedbacksvc "github.com/kaze3114/castket/backend/internal/services/feedback"
	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
	modsvc "github.com/kaze3114/castket/backend/internal/services/moderation"
	profilesvc "github.com/kaze3114/castket/backend/internal/services/profiles"
	ratesvc "github.com/kaze3114/castket/backend/internal/services/rate"
	"github.com/kaze3114/castket/backend/internal/transport/http/handlers"
)

const verdictLocalCacheSize = 1000

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	policy, err := ModerationPolicy(cfg.Moderation)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(BasicAuthMiddleware(cfg.BasicAuth, "/healthz", "/metrics"))
	ApplyMiddlewares(r, log, cfg.HTTP.WriteTimeout)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	verdictCache := redrepo.NewVerdictCacheRepo(redisClient, cfg.Classifier.CacheTTL, verdictLocalCacheSize)
	profileRepo := pgrepo.NewProfileRepo(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)
	eventRepo := pgrepo.NewEventRepo(pool)
	entryRepo := pgrepo.NewEntryRepo(pool)
	feedbackRepo := pgrepo.NewFeedbackRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	var storage mediasvc.ObjectStorage
	if s3Client != nil {
		storage = mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	}
	mediaService := mediasvc.NewService(storage, mediasvc.Config{
		PublicURL:     cfg.S3.PublicURL,
		UploadTTL:     cfg.S3.PresignTTL,
		MaxImageBytes: cfg.Classifier.MaxImageBytes,
	})

	httpOpts := httpclient.DefaultOptions()
	httpOpts.Timeout = cfg.Classifier.Timeout
	gemini := classifier.NewGeminiClient(classifier.GeminiConfig{
		APIKey:   cfg.Classifier.APIKey,
		Endpoint: cfg.Classifier.Endpoint,
		Model:    cfg.Classifier.Model,
	}, httpclient.New(httpOpts, log), log)
	if !gemini.Configured() {
		log.Warn("classifier api key is empty, content checks will be rejected")
	}
	contentClassifier := classifier.NewCached(gemini, verdictCache, log)

	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Rate.ChecksPerMinute, cfg.Rate.ChecksPer10Seconds)
	moderationService := modsvc.NewService(moderationRepo, policy,
		modsvc.WithClassifier(contentClassifier),
		modsvc.WithImageFetcher(mediaService),
		modsvc.WithRateLimiter(rateLimiter),
		modsvc.WithLogger(log),
	)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience, time.Hour)
	authService := authsvc.NewService(jwtManager)
	eventService := eventsvc.NewService(eventRepo, entryRepo, moderationService, log)
	profileService := profilesvc.NewService(profileRepo, moderationService)
	feedbackService := feedbacksvc.NewService(feedbackRepo, contentClassifier, log)

	RegisterRoutes(r, Dependencies{
		AuthService:       authService,
		EventService:      eventService,
		FeedbackService:   feedbackService,
		MediaService:      mediaService,
		ModerationService: moderationService,
		ProfileService:    profileService,
		HealthChecks:      healthChecks(pool, redisClient),
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

// ModerationPolicy turns the moderation config section into the runtime policy.
func ModerationPolicy(cfg config.ModerationConfig) (modsvc.Policy, error) {
	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return modsvc.Policy{}, fmt.Errorf("load display timezone: %w", err)
	}

	policy := modsvc.DefaultPolicy()
	policy.ViolationLimit = cfg.ViolationLimit
	policy.ViolationWindow = cfg.ViolationWindow
	policy.SuspensionLimit = cfg.SuspensionLimit
	policy.SuspensionWindow = cfg.SuspensionWindow
	policy.SuspensionDuration = cfg.SuspensionDuration
	policy.DisplayLocation = loc
	policy.FailOpenText = cfg.FailOpenText
	policy.FailOpenImage = cfg.FailOpenImage
	return policy, nil
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"postgres": func(ctx context.Context) error {
			if pool == nil {
				return errors.New("postgres is not connected")
			}
			return pool.Ping(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redrepo.Ping(ctx, redisClient)
		},
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
