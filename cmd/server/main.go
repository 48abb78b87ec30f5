package main

import (
	"log/slog"
	"os"

	"github.com/accounting-cell/NAJUM-ALTHURAY/config"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/routes"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadAuthConfig()
	config.ConnectDB()
	config.ConnectRedis()

	r := gin.Default()
	routes.SetupRoutes(r, config.DB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
