package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type apiDeleteTaskRequest struct {
	ID json.RawMessage `json:"id"`
}

// HandleAPIDeleteTask serves machine clients. It always answers with
// {"error": bool} and, once the id is parsed, echoes it back.
func (h *handlerImpl) HandleAPIDeleteTask(c *gin.Context) {
	taskID, err := parseAPITaskID(c)
	if err != nil {
		h.logger.Info().
			Err(err).
			Msg("invalid task id")
		c.JSON(http.StatusOK, gin.H{"error": true})
		return
	}

	outcome, err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": true, "id": taskID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": !outcome.Found, "id": taskID})
}

// parseAPITaskID reads id from a JSON body (number or numeric string)
// or from a form field.
func parseAPITaskID(c *gin.Context) (int64, error) {
	if c.ContentType() != binding.MIMEJSON {
		return parseTaskID(c.PostForm("id"))
	}

	var req apiDeleteTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		return 0, err
	}

	raw := bytes.TrimSpace(req.ID)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		err = json.Unmarshal(raw, &s)
		if err != nil {
			return 0, err
		}
		return parseTaskID(s)
	}
	return parseTaskID(string(raw))
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errInvalidTaskID
	}
	return id, nil
}
