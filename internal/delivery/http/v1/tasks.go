package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/models"
	"github.com/adanyl0v/go-task-api/internal/services"
)

type getTaskResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:    task.ID,
		Label: task.Label,
		Done:  task.Done,
	}
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

// createTaskRequest accepts both the JSON body and the HTML form field.
type createTaskRequest struct {
	Task string `json:"task" form:"task"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req createTaskRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.AddTask(c, req.Task)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, taskID)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type setTaskStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// HandleSetTaskStatus takes the status from the body, or from the
// status query parameter when the body is empty.
func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req setTaskStatusRequest
	if c.Request.ContentLength != 0 {
		err := c.ShouldBind(&req)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to bind request body")
			abort(c, newBadRequestError(errInvalidRequestBody.Error()))
			return
		}
	}
	if req.Status == "" {
		req.Status = c.Query("status")
	}

	task, err := h.tasks.SetTaskStatus(c, services.SetTaskStatusParams{
		ID:     taskID,
		Status: req.Status,
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	outcome, err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	if !outcome.Found {
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *handlerImpl) HandleResetTasks(c *gin.Context) {
	err := h.tasks.ResetTasks(c)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	err := h.pinger.Ping(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("storage ping failed")
		abort(c, newStatusTextError(http.StatusServiceUnavailable))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlerImpl) taskIDParam(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.logger.Error().
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return 0, false
	}
	return taskID, true
}

func (h *handlerImpl) abortWithServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		abort(c, newBadRequestError(validationErr.Message))
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrResetDisabled):
		abort(c, newForbiddenError(services.ErrResetDisabled.Error()))
	default:
		h.logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
