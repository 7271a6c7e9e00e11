package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"tradehub/internal/adapter/api"
	"tradehub/internal/adapter/api/handler"
	apimiddleware "tradehub/internal/adapter/api/middleware"
	"tradehub/internal/adapter/api/router"
	"tradehub/internal/adapter/repository"
	domainrepo "tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/firebase"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/internal/infrastructure/telemetry"
	"tradehub/internal/usecase"
	"tradehub/pkg/config"
	"tradehub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Environment); err != nil {
		logger.Error("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer := telemetry.InitTracer(ctx, cfg)

	store, identity, claims, closeStore := setupStore(ctx, cfg)
	defer closeStore()

	limiter, closeLimiter := setupLimiter(ctx, cfg)
	defer closeLimiter()

	gate := service.NewPermissionGate()
	profiles := usecase.NewProfileResolver(store)

	notificationUseCase := usecase.NewNotificationUseCase(store)
	tradeAdUseCase := usecase.NewTradeAdUseCase(store, gate, limiter)
	followUpUseCase := usecase.NewFollowUpUseCase(store, tradeAdUseCase, notificationUseCase, cfg.FollowUpMaxAttempts)
	chatUseCase := usecase.NewChatUseCase(store, gate, limiter)
	tradeOfferUseCase := usecase.NewTradeOfferUseCase(store, chatUseCase, followUpUseCase, gate, limiter, profiles)
	middlemanCallUseCase := usecase.NewMiddlemanCallUseCase(store, chatUseCase, followUpUseCase, gate, limiter, profiles)
	userUseCase := usecase.NewUserUseCase(store, claims)

	// Reconcile follow-ups left behind by a crash between commit and dispatch.
	followUpUseCase.StartReplayJob(ctx, cfg.FollowUpReplayInterval)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(apimiddleware.RateLimit(limiter))

	e.Validator = api.NewValidator()

	router.Setup(e, router.Handlers{
		Health:        handler.NewHealthHandler(),
		TradeAd:       handler.NewTradeAdHandler(tradeAdUseCase),
		Chat:          handler.NewChatHandler(chatUseCase),
		TradeOffer:    handler.NewTradeOfferHandler(tradeOfferUseCase),
		MiddlemanCall: handler.NewMiddlemanCallHandler(middlemanCallUseCase),
		Notification:  handler.NewNotificationHandler(notificationUseCase),
		User:          handler.NewUserHandler(userUseCase),
	}, apimiddleware.NewAuthMiddleware(identity))

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error: %v", err)
	}
}

// setupStore picks the document store, the matching identity provider and, for
// Firebase, the role claim writer. The memory backend accepts development tokens, starts
// from the development seed and refuses to start in production.
func setupStore(ctx context.Context, cfg *config.Config) (domainrepo.Store, apimiddleware.IdentityProvider, usecase.RoleClaimSetter, func()) {
	if cfg.StoreBackend == "memory" {
		if cfg.IsProduction() {
			logger.Error("The memory store cannot be used in production")
			os.Exit(1)
		}
		logger.Warn("Using in-memory store with development tokens; data is lost on restart")
		store := repository.NewMemoryStore()

		seed, err := repository.LoadSeed(cfg.DevSeedFile)
		if err != nil {
			logger.Error("Failed to load development seed: %v", err)
			os.Exit(1)
		}
		if err := seed.Apply(ctx, store, time.Now().UTC()); err != nil {
			logger.Error("Failed to apply development seed: %v", err)
			os.Exit(1)
		}
		logger.Info("Seeded %d users and %d items", len(seed.Users), len(seed.Items))

		return store, firebase.NewDevAuthClient(store), nil, func() {}
	}

	var opt option.ClientOption
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); err != nil {
			logger.Error("Service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
			os.Exit(1)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase: %v", err)
		os.Exit(1)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Error("Failed to initialize Firebase Auth: %v", err)
		os.Exit(1)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		logger.Error("Failed to create Firestore client: %v", err)
		os.Exit(1)
	}

	store := repository.NewFirestoreStore(firestoreClient)
	identity := firebase.NewAuthClient(authClient, store)
	return store, identity, identity, func() { firestoreClient.Close() }
}

// setupLimiter shares limits across instances through Redis when REDIS_ADDR is set and
// keeps per-process token buckets otherwise.
func setupLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis at %s unreachable, requests will not be limited until it is: %v", cfg.RedisAddr, err)
		} else {
			logger.Info("Using Redis rate limiter at %s", cfg.RedisAddr)
		}
		return ratelimit.NewRedisLimiter(client), func() { client.Close() }
	}

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx)
	return limiter, func() {}
}
