package utils

import (
	"github.com/gin-gonic/gin"
)

// Response is the common envelope for all API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// ValidationErrorResponse returns a 422 with a per-field error list.
func ValidationErrorResponse(c *gin.Context, statusCode int, message string, fieldErrors interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}
