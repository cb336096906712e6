package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/linnoak/teamboard-api/internal/config"
	"github.com/linnoak/teamboard-api/internal/handler"
	"github.com/linnoak/teamboard-api/internal/middleware"
	"github.com/linnoak/teamboard-api/internal/repository"
	"github.com/linnoak/teamboard-api/internal/usecase"
	"github.com/linnoak/teamboard-api/shared/auth"
	"github.com/linnoak/teamboard-api/shared/mailer"
	"github.com/linnoak/teamboard-api/shared/push"
	"github.com/linnoak/teamboard-api/shared/registry"
	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

func main() {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "teamboard-api").
		Logger()

	cfg := config.New(&logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}
	cancel()

	db := client.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	sessionRepo := repository.NewSessionMongoRepository(ctx, &logger, db)
	challengeRepo := repository.NewChallengeMongoRepository(ctx, &logger, db)
	resetTokenRepo := repository.NewResetTokenMongoRepository(ctx, &logger, db)
	commentRepo := repository.NewCommentMongoRepository(ctx, &logger, db)
	deviceRepo := repository.NewDeviceTokenMongoRepository(ctx, &logger, db)
	fileRepo := repository.NewFileMongoRepository(ctx, &logger, db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)
	appMailer := mailer.NewMailer(&logger)

	validator, err := sharedvalidator.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize validator")
	}

	var notificationUsecase usecase.NotificationUsecase
	if cfg.Push.Enabled {
		sender, err := push.NewFCMSender(ctx, cfg.Push.ProjectID, cfg.Push.CredentialsFile, cfg.Push.SendTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize push sender")
		}
		notificationUsecase = usecase.NewNotificationUsecase(deviceRepo, commentRepo, sender, &logger)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, sessionRepo, jwtAuth, &cfg.Token)
	resetUsecase := usecase.NewPasswordResetUsecase(
		userRepo, challengeRepo, resetTokenRepo, sessionRepo,
		jwtAuth, appMailer, &cfg.Token, &cfg.Reset, &logger,
	)
	commentUsecase := usecase.NewCommentUsecase(commentRepo, notificationUsecase)

	roleRules, err := middleware.ParseRoleRules(cfg.Gate.RoleRules)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse role rules")
	}
	policy := middleware.NewAccessPolicy(cfg.Gate.ProtectedPrefixes, roleRules)
	gate := middleware.NewAuthGate(policy, jwtAuth, cfg.Token.AccessTokenSecret, &cfg.Gate, &logger)

	authHandler := handler.NewAuthHandler(authUsecase, resetUsecase, validator, &logger)
	commentHandler := handler.NewCommentHandler(commentUsecase, validator, &logger)
	fileHandler := handler.NewFileHandler(fileRepo, cfg.Upload.MaxSizeBytes, &logger)
	healthHandler := handler.NewHealthHandler(client)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(gate.Handler)

	router.Get("/healthz", healthHandler.Healthz)
	router.Route("/auth", authHandler.Routes)
	router.Route("/api", func(r chi.Router) {
		r.Route("/comments", commentHandler.Routes)
		r.Route("/files", fileHandler.Routes)
		if notificationUsecase != nil {
			deviceHandler := handler.NewDeviceHandler(notificationUsecase, validator, &logger)
			r.Route("/devices", deviceHandler.Routes)
		}
	})

	if cfg.Consul.Enabled {
		consulRegistry, err := registry.NewConsulRegistry(cfg.Consul.Address, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to consul")
		}
		if err := consulRegistry.Register(cfg.Consul.ServiceName, cfg.Server.Host, cfg.Server.Port); err != nil {
			logger.Fatal().Err(err).Msg("failed to register service with consul")
		}
		defer consulRegistry.Deregister()
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
