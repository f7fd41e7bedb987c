package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/controllers"
	"gearguard/internal/repositories"
	"gearguard/internal/services"
	"gearguard/pkg/config"
	"gearguard/pkg/constants"
	"gearguard/pkg/middleware"
	"gearguard/pkg/service"
)

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	api := e.Group("/api")

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	teamRepo := repositories.NewTeamRepository(dbConn, logger)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)
	requestRepo := repositories.NewRequestRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- СЕРВИСЫ ---
	gate := authz.NewGatekeeper()
	teamService := services.NewTeamService(teamRepo, cacheRepo, cfg.Cache.TeamRosterTTL, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, requestRepo, teamRepo, logger)
	requestService := services.NewRequestService(requestRepo, equipmentRepo, userRepo, teamService, gate, logger)
	reportService := services.NewReportService(requestRepo, logger)

	// --- КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, logger)
	teamCtrl := controllers.NewTeamController(teamService, logger)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)
	requestCtrl := controllers.NewRequestController(requestService, reportService, logger)

	authMW := middleware.NewAuthMiddleware(jwtSvc, userRepo, logger)
	managerOnly := authMW.RequireRoles(constants.RoleManager)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authCtrl.Register)
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh_token", authCtrl.Refresh)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}

	teamGroup := api.Group("/teams", authMW.Auth)
	{
		teamGroup.GET("", teamCtrl.GetTeams)
		teamGroup.GET("/:id", teamCtrl.FindTeam)
		teamGroup.POST("", teamCtrl.CreateTeam, managerOnly)
		teamGroup.PUT("/:id", teamCtrl.UpdateTeam, managerOnly)
		teamGroup.DELETE("/:id", teamCtrl.DeleteTeam, managerOnly)
	}

	equipmentGroup := api.Group("/equipment", authMW.Auth)
	{
		equipmentGroup.GET("", equipmentCtrl.GetEquipments)
		equipmentGroup.GET("/:id", equipmentCtrl.FindEquipment)
		equipmentGroup.GET("/:id/requests", equipmentCtrl.GetRequestsForEquipment)
		equipmentGroup.GET("/:id/requests/count", equipmentCtrl.CountOpenRequests)
		equipmentGroup.POST("", equipmentCtrl.CreateEquipment, managerOnly)
		equipmentGroup.PUT("/:id", equipmentCtrl.UpdateEquipment, managerOnly)
		equipmentGroup.DELETE("/:id", equipmentCtrl.DeleteEquipment, managerOnly)
	}

	requestGroup := api.Group("/requests", authMW.Auth)
	{
		requestGroup.GET("", requestCtrl.GetRequests)
		requestGroup.GET("/calendar", requestCtrl.GetCalendar)
		requestGroup.GET("/manager", requestCtrl.GetManagerBoard, managerOnly)
		requestGroup.GET("/technician", requestCtrl.GetTechnicianBoard,
			authMW.RequireRoles(constants.RoleTechnician, constants.RoleManager))
		requestGroup.GET("/technicians", requestCtrl.GetTechnicians, managerOnly)
		requestGroup.GET("/report/export", requestCtrl.ExportReport, managerOnly)

		requestGroup.POST("", requestCtrl.CreateRequest)
		requestGroup.GET("/:id", requestCtrl.FindRequest)
		requestGroup.PUT("/:id", requestCtrl.UpdateRequest)
		requestGroup.DELETE("/:id", requestCtrl.DeleteRequest, managerOnly)

		requestGroup.PATCH("/:id/assign-self", requestCtrl.AssignSelf,
			authMW.RequireRoles(constants.RoleTechnician, constants.RoleManager))
		requestGroup.PATCH("/:id/assign-manager", requestCtrl.AssignByManager, managerOnly)
		requestGroup.PATCH("/:id/start", requestCtrl.Start,
			authMW.RequireRoles(constants.RoleTechnician, constants.RoleManager))
		requestGroup.PATCH("/:id/complete", requestCtrl.Complete,
			authMW.RequireRoles(constants.RoleTechnician, constants.RoleManager))
		requestGroup.PATCH("/:id/scrap", requestCtrl.Scrap,
			authMW.RequireRoles(constants.RoleTechnician, constants.RoleManager))
	}
}
