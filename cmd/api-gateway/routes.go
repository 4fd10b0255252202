package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/handler"
	"github.com/noah-isme/surveyhustler-api/internal/middleware"
	"github.com/noah-isme/surveyhustler-api/internal/models"
	"github.com/noah-isme/surveyhustler-api/internal/service"
	"github.com/noah-isme/surveyhustler-api/pkg/config"
	"github.com/noah-isme/surveyhustler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/surveyhustler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/surveyhustler-api/pkg/middleware/requestid"
)

type routeDeps struct {
	metrics *service.MetricsService
	auth    *service.AuthService
	users   *service.SurveyService

	registration  *handler.RegistrationHandler
	authHandler   *handler.AuthHandler
	academics     *handler.AcademicHandler
	respondents   *handler.RespondentHandler
	surveys       *handler.SurveyHandler
	niche         *handler.NicheEditHandler
	analysis      *handler.AnalysisHandler
	exports       *handler.ExportHandler
	payments      *handler.PaymentHandler
	observability *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.observability.Health)
	r.GET("/ready", d.observability.Ready)
	r.GET("/metrics", d.observability.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", d.observability.Summary)

	auth := api.Group("/auth")
	auth.POST("/otp", d.registration.SendOTP)
	auth.POST("/otp/verify", d.registration.VerifyOTP)
	auth.POST("/register", d.registration.Complete)
	auth.POST("/login", d.authHandler.Login)
	auth.GET("/me", middleware.JWT(d.auth), d.authHandler.Me)

	academics := api.Group("/academics")
	academics.GET("/options", d.academics.Tree)
	academics.GET("/institutions", d.academics.Institutions)
	academics.GET("/institutions/:id/colleges", d.academics.Colleges)
	academics.GET("/colleges/:id/departments", d.academics.Departments)
	academics.GET("/departments/:id/courses", d.academics.Courses)
	academics.GET("/niches", d.academics.Niches)
	academics.GET("/levels", d.academics.Levels)

	api.POST("/payments/webhook", d.payments.Webhook)
	api.GET("/exports/download", d.exports.Download)

	bot := api.Group("/bot", middleware.BotKey(cfg.Bot.APIKey))
	bot.GET("/users/:externalId", d.registration.Check)
	bot.GET("/users/:externalId/eligible-surveys", d.respondents.EligibleSurveys)
	bot.GET("/surveys/:id", d.respondents.Survey)
	bot.POST("/verifications", d.respondents.Verify)

	botCreator := bot.Group("/users/:externalId", middleware.BotActor(d.users), middleware.RequireRoles(models.RoleCreator))
	mountCreatorRoutes(botCreator, d)

	creator := api.Group("/creator", middleware.JWT(d.auth), middleware.RequireRoles(models.RoleCreator))
	mountCreatorRoutes(creator, d)

	return r
}

// mountCreatorRoutes registers survey management on a group whose middleware
// has already identified the caller.
func mountCreatorRoutes(g *gin.RouterGroup, d routeDeps) {
	g.POST("/surveys/payments", d.surveys.InitiatePayment)
	g.GET("/surveys", d.surveys.List)
	g.GET("/surveys/:id", d.surveys.Details)
	g.DELETE("/surveys/:id", d.surveys.Discontinue)
	g.POST("/links/verify", d.surveys.VerifyLinks)

	g.POST("/surveys/:id/niche-edit", d.niche.Start)
	g.GET("/surveys/:id/niche-edit", d.niche.Get)
	g.POST("/surveys/:id/niche-edit/step", d.niche.Step)
	g.POST("/surveys/:id/niche-edit/checkout", d.niche.Checkout)
	g.DELETE("/surveys/:id/niche-edit", d.niche.Cancel)

	g.POST("/surveys/:id/analysis", d.analysis.Analyze)
	g.POST("/surveys/:id/chat", d.analysis.Chat)
	g.POST("/surveys/:id/exports", d.exports.Export)
}
