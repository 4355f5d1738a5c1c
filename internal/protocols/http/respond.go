package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"lessonhub/pkg/models"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(200, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(201, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(400, models.APIResponse{
		Success:   false,
		Error:     msg,
		Code:      models.ErrCodeBadRequest,
		Timestamp: time.Now(),
	})
}

// respondError maps a service error onto its HTTP status and category code
func respondError(c *gin.Context, err error) {
	status := models.HTTPStatus(err)
	code := models.ErrorCode(err)

	msg := err.Error()
	if appErr, ok := models.AsAppError(err); ok {
		msg = appErr.Message
	}
	if code == models.ErrCodeInternal {
		// internal causes stay in the logs, not in the response
		msg = "internal server error"
	}

	c.JSON(status, models.APIResponse{
		Success:   false,
		Error:     msg,
		Code:      code,
		Timestamp: time.Now(),
	})
}
