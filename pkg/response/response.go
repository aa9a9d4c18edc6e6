package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应包体
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: "OK", Data: data})
}

func BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: code, Message: message})
}

func NotFound(c *gin.Context, code, message string) {
	c.JSON(http.StatusNotFound, Response{Code: code, Message: message})
}

func Conflict(c *gin.Context, code, message string) {
	c.JSON(http.StatusConflict, Response{Code: code, Message: message})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{Code: "UNAUTHORIZED", Message: message})
}

func InternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Response{Code: "INTERNAL_ERROR", Message: err.Error()})
}
