package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"anonchat/internal/validation"
)

type APIResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    interface{}             `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func OK(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, APIResponse{
		Success: false,
		Message: message,
	})
}

// Invalid reports schema failures with one entry per rejected field.
func Invalid(c *gin.Context, httpStatus int, err error) {
	resp := APIResponse{Success: false, Message: err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}
	c.JSON(httpStatus, resp)
}
