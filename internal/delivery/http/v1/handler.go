package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/services"
)

type Handler interface {
	HandleRequestID(c *gin.Context)
	HandleAccessLog(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleResetTasks(c *gin.Context)

	HandleAPIDeleteTask(c *gin.Context)

	HandleHealth(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	tasks  services.TaskService
	pinger Pinger
}

// Pinger reports whether the storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	pinger Pinger,
) Handler {
	return &handlerImpl{
		logger: logger,
		tasks:  taskService,
		pinger: pinger,
	}
}

// RegisterRoutes mounts the task routes on router. The reset route is
// only mounted when withReset is set.
func RegisterRoutes(router gin.IRouter, h Handler, withReset bool) {
	router.Use(h.HandleRequestID, h.HandleAccessLog)

	router.GET("/healthz", h.HandleHealth)

	todos := router.Group("/todos")
	todos.GET("", h.HandleGetTasks)
	todos.POST("", h.HandleCreateTask)
	if withReset {
		todos.POST("/reset", h.HandleResetTasks)
	}
	todos.GET("/:id", h.HandleGetTask)
	todos.POST("/:id/status", h.HandleSetTaskStatus)
	todos.DELETE("/:id", h.HandleDeleteTask)

	api := router.Group("/api/todos")
	api.POST("/delete", h.HandleAPIDeleteTask)
}
