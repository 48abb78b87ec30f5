package routes

import (
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/handlers"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/middleware"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes wires every route of the application. Auth routes are public;
// everything else sits behind the JWT middleware.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	authHandler := handlers.NewAuthHandler(db)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	authRequired := r.Group("/api")
	authRequired.Use(middleware.AuthMiddleware())
	registerAPIRoutes(authRequired, db)
}

// registerAPIRoutes registers all authenticated routes.
func registerAPIRoutes(api *gin.RouterGroup, db *gorm.DB) {
	txHandler := handlers.NewTransactionHandler(store.NewTransactionStore(db))
	hoHandler := handlers.NewHandoverHandler(store.NewHandoverStore(db))
	userHandler := handlers.NewUserHandler(db)

	adminOrSupervisor := middleware.RequireRoles("admin", "supervisor")

	transactions := api.Group("/transactions")
	{
		transactions.GET("", txHandler.List)
		transactions.POST("", txHandler.Create)
		transactions.GET("/stats/summary", adminOrSupervisor, txHandler.Stats)
		transactions.GET("/export", adminOrSupervisor, txHandler.ExportTransactions)
		transactions.GET("/:id", txHandler.Get)
		transactions.PUT("/:id", txHandler.Update)
		transactions.DELETE("/:id", middleware.RequireRoles("admin"), txHandler.Delete)
	}

	handovers := api.Group("/handovers")
	{
		handovers.GET("", adminOrSupervisor, hoHandler.List)
		handovers.POST("", middleware.RequireRoles("supervisor"), hoHandler.Create)
		handovers.GET("/my/pending", hoHandler.MyPending)
		handovers.GET("/:id", adminOrSupervisor, hoHandler.Get)
		handovers.PUT("/:id/accept", hoHandler.Accept)
	}

	users := api.Group("/users")
	{
		users.GET("", adminOrSupervisor, userHandler.List)
		users.POST("", middleware.RequireRoles("admin"), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles("admin"), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles("admin"), userHandler.Delete)
	}
}
