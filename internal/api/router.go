package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/config"
	"taskmate/internal/db"
	"taskmate/internal/logging"
	"taskmate/internal/ws"
)

func NewRouter(db *db.DB, logger *logging.Logger, cfg config.Config, hub *ws.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(db, logger, cfg, hub)
	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.GET("/me", AuthMiddleware(cfg.Auth.JWTSecret), h.Me)
		}

		authorized := api.Group("", AuthMiddleware(cfg.Auth.JWTSecret))
		{
			// Tasks
			authorized.POST("/tasks", h.CreateTask)
			authorized.GET("/tasks", h.GetTasks)
			authorized.GET("/tasks/date/:date", h.GetTasksByDate)
			authorized.PUT("/tasks/:id", h.UpdateTask)
			authorized.PATCH("/tasks/:id/done", h.MarkTaskDone)
			authorized.DELETE("/tasks/:id", h.DeleteTask)

			// Reports
			authorized.GET("/reports/daily/:date", h.GetDailyReport)
			authorized.GET("/reports/weekly", h.GetWeeklyReport)
			authorized.GET("/reports/stats", h.GetOverallStats)

			// Delivery channel registration and live feed
			authorized.POST("/telegram/register", h.RegisterTelegram)
			authorized.GET("/ws", h.ServeWS)
		}
	}
	return r
}

type Handler struct {
	db     *db.DB
	logger *logging.Logger
	config config.Config
	hub    *ws.Hub
}

func NewHandler(db *db.DB, logger *logging.Logger, cfg config.Config, hub *ws.Hub) *Handler {
	return &Handler{db: db, logger: logger, config: cfg, hub: hub}
}
