package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil in cfg drop their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Readings
	readings := NewReadingsController(cfg.Library, cfg.Books, cfg.Reconciler)
	router.GET("/api/readings", readings.ListReadings)
	router.GET("/api/readings/stats", readings.GetStats)
	router.GET("/api/readings/:id", readings.GetReading)
	router.GET("/api/readings/:id/markdown", readings.DownloadMarkdown)
	router.PATCH("/api/readings/:id", readings.UpdateReading)
	router.DELETE("/api/readings/:id", readings.DeleteReading)

	// Remote feed
	syncController := NewSyncController(cfg.Reconciler, cfg.Dispatcher, cfg.SyncProgress, cfg.Auditor)
	router.POST("/api/sync", syncController.Ingest)
	router.GET("/api/sync/status", syncController.GetStatus)

	// Reading timer
	if cfg.Timer != nil {
		timerController := NewTimerController(cfg.Timer, cfg.Books)
		router.GET("/api/timer", timerController.Status)
		router.POST("/api/timer/start", timerController.Start)
		router.POST("/api/timer/pause", timerController.Pause)
		router.POST("/api/timer/finish", timerController.Finish)
		router.POST("/api/timer/reset", timerController.Reset)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.RetentionDays)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/prune-archives", tasksController.PruneArchives)
	}

	if cfg.Inbox != nil && cfg.InboxSettings != nil {
		inbox := NewInboxController(cfg.Inbox, cfg.InboxSettings)
		router.GET("/api/inbox/status", inbox.GetStatus)
		router.POST("/api/inbox/sync", inbox.SyncNow)
	}

	return router
}
