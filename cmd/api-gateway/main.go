package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/surveyhustler-api/api/swagger"
	"github.com/noah-isme/surveyhustler-api/internal/handler"
	"github.com/noah-isme/surveyhustler-api/internal/repository"
	"github.com/noah-isme/surveyhustler-api/internal/service"
	"github.com/noah-isme/surveyhustler-api/pkg/ai"
	"github.com/noah-isme/surveyhustler-api/pkg/cache"
	"github.com/noah-isme/surveyhustler-api/pkg/config"
	"github.com/noah-isme/surveyhustler-api/pkg/database"
	"github.com/noah-isme/surveyhustler-api/pkg/jobs"
	"github.com/noah-isme/surveyhustler-api/pkg/korapay"
	"github.com/noah-isme/surveyhustler-api/pkg/logger"
	"github.com/noah-isme/surveyhustler-api/pkg/mailer"
	"github.com/noah-isme/surveyhustler-api/pkg/sheets"
	"github.com/noah-isme/surveyhustler-api/pkg/storage"
)

// @title SurveyHustler API
// @version 1.0.0
// @description Survey marketplace backend for the chat bot and the creator web pages.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey BotKey
// @in header
// @name X-Bot-Key

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	google, err := sheets.NewGoogleClient(ctx, cfg.Sheets)
	if err != nil {
		return fmt.Errorf("init google client: %w", err)
	}
	reader := sheets.NewReader(google, sheets.ReaderOptions{
		Timeout:  cfg.Sheets.RequestTimeout,
		Logger:   logr.Named("sheets"),
		Observer: metricsSvc,
	})

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}

	mailQueue := jobs.NewQueue("otp-mail", service.NewOTPMailHandler(mailer.NewSMTPMailer(cfg.Mail, logr.Named("mailer"))), jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.Retries,
		RetryDelay: 2 * time.Second,
		Timeout:    30 * time.Second,
		Logger:     logr.Named("jobs"),
		Observer:   metricsSvc,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	userRepo := repository.NewUserRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	dialogRepo := repository.NewDialogRepository(rdb, logr.Named("dialog"), cfg.Dialog.SessionTTL)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	otpAttempts := repository.NewOTPAttemptRepository(rdb, cfg.OTP.TTL)
	registrationSvc := service.NewRegistrationService(userRepo, academicRepo, mailQueue, otpAttempts, validate, logr, service.RegistrationConfig{
		OTPTTL:         cfg.OTP.TTL,
		OTPLength:      cfg.OTP.Length,
		MaxOTPAttempts: cfg.OTP.MaxAttempts,
	})
	academicSvc := service.NewAcademicService(academicRepo, logr)
	eligibilitySvc := service.NewEligibilityService(userRepo, surveyRepo, reader, completionRepo, logr, cfg.Sheets.ReadConcurrency)
	verificationSvc := service.NewVerificationService(userRepo, surveyRepo, reader, completionRepo, validate, logr, metricsSvc, cfg.Sheets.SourceUTCOffset)
	surveySvc := service.NewSurveyService(userRepo, surveyRepo, reader, academicRepo, google, validate, logr, cfg.Sheets.RequiredEditorEmail)
	paymentSvc := service.NewPaymentService(paymentRepo, korapay.NewClient(cfg.Payment), dialogRepo, validate, logr, metricsSvc, service.PaymentConfig{
		Currency:      cfg.Payment.Currency,
		RedirectURL:   cfg.Payment.RedirectURL,
		WebhookSecret: cfg.Payment.WebhookSecret,
		ListingFee:    cfg.Payment.ListingFee,
		NicheEditCost: cfg.Payment.NicheEditCost,
	})
	nicheSvc := service.NewNicheEditService(surveyRepo, dialogRepo, academicRepo, paymentSvc, logr)
	analysisSvc := newAnalysisService(ctx, cfg, surveyRepo, reader, validate, logr, metricsSvc)
	exportSvc := service.NewExportService(surveyRepo, reader, files, storage.NewTokenSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr, nil, nil)

	go cleanupExports(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)

	router := newRouter(cfg, logr, routeDeps{
		metrics:      metricsSvc,
		auth:         authSvc,
		users:        surveySvc,
		registration: handler.NewRegistrationHandler(registrationSvc),
		authHandler:  handler.NewAuthHandler(authSvc),
		academics:    handler.NewAcademicHandler(academicSvc),
		respondents:  handler.NewRespondentHandler(eligibilitySvc, verificationSvc, surveySvc),
		surveys:      handler.NewSurveyHandler(surveySvc, paymentSvc),
		niche:        handler.NewNicheEditHandler(nicheSvc),
		analysis:     handler.NewAnalysisHandler(analysisSvc),
		exports:      handler.NewExportHandler(exportSvc, logr),
		payments:     handler.NewPaymentHandler(paymentSvc, logr),
		observability: handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cache.Ping(rdb),
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAnalysisService runs without a model when no Gemini key is configured;
// the analysis endpoints then answer from local statistics only.
func newAnalysisService(ctx context.Context, cfg *config.Config, surveys *repository.SurveyRepository, reader *sheets.Reader, validate *validator.Validate, logr *zap.Logger, metrics *service.MetricsService) *service.AnalysisService {
	if cfg.AI.APIKey == "" {
		logr.Warn("gemini api key not set, analysis limited to local statistics")
		return service.NewAnalysisService(surveys, reader, nil, validate, logr, metrics)
	}
	gemini, err := ai.NewGeminiClient(ctx, cfg.AI)
	if err != nil {
		logr.Error("gemini client unavailable", zap.Error(err))
		return service.NewAnalysisService(surveys, reader, nil, validate, logr, metrics)
	}
	return service.NewAnalysisService(surveys, reader, gemini, validate, logr, metrics)
}

func cleanupExports(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("export cleanup", zap.Int("removed", len(removed)))
			}
		}
	}
}
