package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"neosure-anc-server/internal/config"
	"neosure-anc-server/internal/handlers"
	"neosure-anc-server/internal/logger"
	"neosure-anc-server/internal/middleware"
	"neosure-anc-server/internal/models"
	"neosure-anc-server/internal/realtime"
	"neosure-anc-server/internal/risk"
)

// Deps are the shared services the handlers are built from.
type Deps struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Log    *logger.Logger
	Hub    *realtime.Hub
	Events realtime.Publisher
	Engine *risk.Engine
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Cfg
	engine := deps.Engine
	if engine == nil {
		engine = risk.NewEngine()
	}

	authHandler := handlers.NewAuthHandler(deps.DB, cfg, deps.Log)
	userHandler := handlers.NewUserHandler(deps.DB, deps.Log)
	patientHandler := handlers.NewPatientHandler(deps.DB, deps.Log, engine)
	visitHandler := handlers.NewVisitHandler(deps.DB, deps.Log, engine, deps.Events)
	assessmentHandler := handlers.NewAssessmentHandler(engine)
	referralHandler := handlers.NewReferralHandler(deps.DB, deps.Log, deps.Events, cfg.FacilityName)
	consultHandler := handlers.NewTeleConsultationHandler(deps.DB, deps.Log, deps.Events)
	dashboardHandler := handlers.NewDashboardHandler(deps.DB, deps.Log)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Log)

	anyStaff := middleware.RoleAuthMiddleware(models.RoleANM, models.RoleDoctor, models.RoleAdmin)
	fieldStaff := middleware.RoleAuthMiddleware(models.RoleANM, models.RoleAdmin)
	doctorsOnly := middleware.RoleAuthMiddleware(models.RoleDoctor)

	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			// Staff directory, visible to every signed-in user
			userRoutes.GET("/doctors", userHandler.GetDoctors)
			userRoutes.GET("/workers", userHandler.GetWorkers)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", fieldStaff, patientHandler.CreatePatient)
			patientRoutes.GET("", anyStaff, patientHandler.GetPatients)
			patientRoutes.GET("/:id", anyStaff, patientHandler.GetPatientByID)
			patientRoutes.GET("/:id/visits/export", anyStaff, patientHandler.ExportVisits)
		}

		// Visits are append-only: there is no update or delete route.
		visitRoutes := private.Group("/visits")
		{
			visitRoutes.POST("", anyStaff, visitHandler.CreateVisit)
			visitRoutes.GET("/:id", anyStaff, visitHandler.GetVisitByID)
		}

		riskRoutes := private.Group("/risk")
		{
			riskRoutes.POST("/assess", assessmentHandler.Assess)
			riskRoutes.POST("/badges", assessmentHandler.Badges)
		}

		referralRoutes := private.Group("/referrals")
		{
			referralRoutes.POST("", fieldStaff, referralHandler.CreateReferral)
			referralRoutes.GET("", referralHandler.GetReferrals)
			referralRoutes.GET("/:id", referralHandler.GetReferralByID)
			referralRoutes.PATCH("/:id/status", referralHandler.UpdateReferralStatus)
			referralRoutes.POST("/:id/notes", referralHandler.AddNote)
			referralRoutes.GET("/:id/notes", referralHandler.GetNotes)
		}

		consultRoutes := private.Group("/teleconsultations")
		{
			consultRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleANM), consultHandler.CreateTeleConsultation)
			consultRoutes.GET("", consultHandler.GetTeleConsultations)
			consultRoutes.PATCH("/:id/status", consultHandler.UpdateTeleConsultationStatus)
			consultRoutes.POST("/:id/advice", doctorsOnly, consultHandler.SubmitAdvice)
		}

		private.GET("/dashboard/summary", dashboardHandler.GetSummary)

		if deps.Hub != nil {
			wsHandler := handlers.NewRealtimeHandler(deps.DB, deps.Hub, deps.Log, cfg.Origin)
			private.GET("/ws", wsHandler.Connect)
		}
	}

	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)
}
