package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/pkg/logger"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Message: msg})
}

// ErrorWithData is used when a failed call still has details worth returning.
func ErrorWithData(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Code: status, Message: msg, Data: data})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }

func NotFound(c *gin.Context, msg string) { Error(c, http.StatusNotFound, msg) }

func Conflict(c *gin.Context, msg string) { Error(c, http.StatusConflict, msg) }

func Unauthorized(c *gin.Context, msg string) { Error(c, http.StatusUnauthorized, msg) }

// InternalError logs err and hides it from the caller.
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	Error(c, http.StatusInternalServerError, "internal server error")
}
