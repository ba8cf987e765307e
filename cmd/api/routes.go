package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/beaconaid/foundation-api/internal/handler"
	"github.com/beaconaid/foundation-api/internal/middleware"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/config"
	"github.com/beaconaid/foundation-api/pkg/logger"
	corsmiddleware "github.com/beaconaid/foundation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/beaconaid/foundation-api/pkg/middleware/requestid"
)

type routeDeps struct {
	cfg     *config.Config
	authSvc *service.AuthService
	metrics *service.MetricsService

	auth          *handler.AuthHandler
	users         *handler.UserHandler
	foundations   *handler.FoundationHandler
	supports      *handler.SupportConfigHandler
	applications  *handler.ApplicationHandler
	academic      *handler.AcademicHandler
	finance       *handler.FinanceHandler
	programs      *handler.ProgramHandler
	documents     *handler.DocumentHandler
	messages      *handler.MessageHandler
	notifications *handler.NotificationHandler
	audit         *handler.AuditHandler
	observability *handler.MetricsHandler
}

func newRouter(logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.observability.Health)
	r.GET("/ready", deps.observability.Health)
	r.GET("/metrics", deps.observability.Prometheus)

	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.authSvc))
	{
		protected.POST("/auth/logout", deps.auth.Logout)
		protected.POST("/auth/change-password", deps.auth.ChangePassword)
		protected.GET("/auth/me", deps.auth.Me)

		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireOperation(service.OpUserList), deps.users.List)
			users.POST("", middleware.RequireOperation(service.OpUserCreate), deps.users.Create)
			users.PUT("/me/profile", middleware.RequireOperation(service.OpProfileComplete), deps.users.CompleteProfile)
			users.GET("/:id", middleware.RequireOperation(service.OpUserGet), deps.users.Get)
			users.PUT("/:id", middleware.RequireOperation(service.OpUserUpdate), deps.users.Update)
			users.POST("/:id/deactivate", middleware.RequireOperation(service.OpUserDeactivate), deps.users.Deactivate)
			users.POST("/:id/reactivate", middleware.RequireOperation(service.OpUserDeactivate), deps.users.Reactivate)
		}

		foundations := protected.Group("/foundations")
		{
			foundations.GET("", middleware.RequireOperation(service.OpFoundationList), deps.foundations.List)
			foundations.POST("", middleware.RequireOperation(service.OpFoundationCreate), deps.foundations.Create)
			foundations.GET("/:id", middleware.RequireOperation(service.OpFoundationGet), deps.foundations.Get)
			foundations.PUT("/:id", middleware.RequireOperation(service.OpFoundationUpdate), deps.foundations.Update)
		}

		supports := protected.Group("/support-configs")
		{
			supports.GET("", middleware.RequireOperation(service.OpSupportList), deps.supports.List)
			supports.POST("", middleware.RequireOperation(service.OpSupportCreate), deps.supports.Create)
			supports.GET("/me", middleware.RequireOperation(service.OpSupportForUser), deps.supports.ListForBeneficiary)
			supports.POST("/reactivate-all", middleware.RequireOperation(service.OpSupportReactivate), deps.supports.ReactivateAll)
			supports.POST("/seed-defaults", middleware.RequireOperation(service.OpSupportSeed), deps.supports.SeedDefaults)
			supports.GET("/:id", middleware.RequireOperation(service.OpSupportList), deps.supports.Get)
			supports.PUT("/:id", middleware.RequireOperation(service.OpSupportUpdate), deps.supports.Update)
			supports.POST("/:id/deactivate", middleware.RequireOperation(service.OpSupportDeactivate), deps.supports.Deactivate)
		}

		applications := protected.Group("/applications")
		{
			applications.GET("", middleware.RequireOperation(service.OpApplicationList), deps.applications.List)
			applications.POST("", middleware.RequireOperation(service.OpApplicationSubmit), deps.applications.Submit)
			applications.GET("/mine", middleware.RequireOperation(service.OpApplicationSubmit), deps.applications.Mine)
			applications.GET("/:id", middleware.RequireOperation(service.OpApplicationGet), deps.applications.Get)
			applications.POST("/:id/assign", middleware.RequireOperation(service.OpApplicationAssign), deps.applications.AssignReviewer)
			applications.POST("/:id/decide", middleware.RequireOperation(service.OpApplicationDecide), deps.applications.Decide)
		}

		academic := protected.Group("")
		{
			academic.GET("/academic-sessions", middleware.RequireOperation(service.OpSessionList), deps.academic.ListSessions)
			academic.POST("/academic-sessions", middleware.RequireOperation(service.OpSessionCreate), deps.academic.CreateSession)
			academic.POST("/academic-sessions/:id/close", middleware.RequireOperation(service.OpSessionCreate), deps.academic.CloseSession)
			academic.GET("/performance", middleware.RequireOperation(service.OpPerformanceList), deps.academic.ListPerformance)
			academic.POST("/performance", middleware.RequireOperation(service.OpPerformanceRecord), deps.academic.RecordPerformance)
		}

		finance := protected.Group("")
		{
			finance.GET("/disbursements", middleware.RequireOperation(service.OpDisbursementList), deps.finance.List)
			finance.POST("/disbursements", middleware.RequireOperation(service.OpDisbursementCreate), deps.finance.Create)
			finance.POST("/disbursements/:id/mark", middleware.RequireOperation(service.OpDisbursementMark), deps.finance.Mark)
			finance.GET("/finance/summary", middleware.RequireOperation(service.OpFinanceSummary), deps.finance.Summary)
			finance.GET("/finance/export", middleware.RequireOperation(service.OpFinanceExport), deps.finance.Export)
		}

		programs := protected.Group("/programs")
		{
			programs.GET("", middleware.RequireOperation(service.OpProgramList), deps.programs.List)
			programs.POST("", middleware.RequireOperation(service.OpProgramCreate), deps.programs.Create)
			programs.GET("/:id", middleware.RequireOperation(service.OpProgramList), deps.programs.Get)
			programs.POST("/:id/close", middleware.RequireOperation(service.OpProgramCreate), deps.programs.Close)
			programs.GET("/:id/enrollments", middleware.RequireOperation(service.OpProgramEnroll), deps.programs.Enrollments)
			programs.POST("/:id/enrollments", middleware.RequireOperation(service.OpProgramEnroll), deps.programs.Enroll)
			programs.PUT("/:id/enrollments", middleware.RequireOperation(service.OpProgramEnroll), deps.programs.UpdateEnrollment)
		}

		documents := protected.Group("/documents")
		{
			documents.GET("", middleware.RequireOperation(service.OpDocumentList), deps.documents.List)
			documents.POST("", middleware.RequireOperation(service.OpDocumentCreate), deps.documents.Register)
			documents.GET("/:id", middleware.RequireOperation(service.OpDocumentList), deps.documents.Get)
			documents.POST("/:id/review", middleware.RequireOperation(service.OpDocumentVerify), deps.documents.Review)
		}

		messages := protected.Group("/messages")
		{
			messages.GET("", middleware.RequireOperation(service.OpMessageList), deps.messages.List)
			messages.POST("", middleware.RequireOperation(service.OpMessageSend), deps.messages.Send)
			messages.POST("/:id/read", middleware.RequireOperation(service.OpMessageList), deps.messages.MarkRead)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", middleware.RequireOperation(service.OpNotificationList), deps.notifications.List)
			notifications.GET("/unread-count", middleware.RequireOperation(service.OpNotificationList), deps.notifications.UnreadCount)
			notifications.POST("/read-all", middleware.RequireOperation(service.OpNotificationRead), deps.notifications.MarkAllRead)
			notifications.POST("/:id/read", middleware.RequireOperation(service.OpNotificationRead), deps.notifications.MarkRead)
		}

		protected.GET("/audit-logs", middleware.RequireOperation(service.OpAuditList), deps.audit.List)
	}

	return r
}
