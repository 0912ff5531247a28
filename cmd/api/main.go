package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradnet/internal/config"
	"gradnet/internal/db"
	"gradnet/internal/email"
	apihttp "gradnet/internal/http"
	"gradnet/internal/repository"
	"gradnet/internal/service"
	"gradnet/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.IsLocal() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	otpRepo := repository.NewPgOTPRepository(pool)
	postRepo := repository.NewPgPostRepository(pool)
	forumRepo := repository.NewPgForumRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	txManager := repository.NewPgTxManager(pool)

	emailSender := newEmailSender(cfg, logger)

	otpLimiter := service.NewOTPRateLimiter(cfg.OTPRateWindow, cfg.OTPRateMax)
	sessionStore := service.NewMemorySessionStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(logger, redisClient, cfg.OTPRateWindow, cfg.OTPRateMax)
			sessionStore = service.NewRedisSessionStore(redisClient)
		}
		cancel()
	} else {
		logger.Warn("redis not configured, sessions are process-local")
	}

	var mediaStore service.MediaStore
	if cfg.MediaEnabled() {
		store, err := storage.NewS3MediaStore(ctx, storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			TTL:       cfg.S3PresignTTL,
		})
		if err != nil {
			logger.Warn("media storage init failed", zap.Error(err))
		} else {
			mediaStore = store
		}
	}

	authSvc := service.NewAuthService(logger, userRepo, otpRepo, txManager, emailSender, sessionStore, otpLimiter, service.AuthOptions{
		OTPTTL:              cfg.OTPTTL,
		SessionTTL:          cfg.SessionTTL,
		FailOnDeliveryError: cfg.OTPDeliveryPolicy == config.DeliveryPolicyFail,
	})
	userSvc := service.NewUserService(logger, userRepo)
	mediaSvc := service.NewMediaService(logger, mediaStore)
	tokenSvc := service.NewSessionTokenService(cfg.SessionSecret)

	gate := apihttp.NewSessionGate(logger, authSvc, tokenSvc, apihttp.CookieOptions{
		Name:        cfg.SessionCookieName,
		Secure:      cfg.SessionCookieSecure,
		LandingPath: cfg.AuthLandingPath,
	})
	router := apihttp.NewRouter(logger, apihttp.Handlers{
		Gate:     gate,
		Auth:     apihttp.NewAuthHandler(logger, authSvc, gate),
		Feed:     apihttp.NewFeedHandler(logger, postRepo),
		Forum:    apihttp.NewForumHandler(logger, forumRepo),
		Profile:  apihttp.NewProfileHandler(logger, userSvc, mediaSvc),
		Messages: apihttp.NewMessageHandler(logger, messageRepo, userRepo),
		Media:    apihttp.NewMediaHandler(logger, mediaSvc),
		Health: func(ctx context.Context) error {
			return db.Ping(ctx, pool)
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("otp_delivery_policy", cfg.OTPDeliveryPolicy),
		zap.Bool("media_enabled", mediaStore != nil),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newEmailSender elige SMTP, log o deshabilitado segun la configuracion.
func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.EmailLogOnly {
		logger.Warn("email log-only mode, codes are written to the log")
		return email.NewLogSender(logger)
	}
	if cfg.SMTPHost == "" {
		logger.Warn("smtp not configured, otp emails will fail")
		return email.NewDisabledSender("email sender not configured")
	}
	sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName)
	if err != nil {
		logger.Warn("smtp sender init failed", zap.Error(err))
		return email.NewDisabledSender(err.Error())
	}
	return sender
}
