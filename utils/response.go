package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	GenericErrorMessage    = "An error occurred while processing your request"
	ValidationErrorMessage = "The given data was invalid."
)

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func JSONMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

// JSONInternalError writes the generic 500 body; details are only exposed in debug mode.
func JSONInternalError(c *gin.Context, err error, debug bool) {
	body := gin.H{"error": GenericErrorMessage}
	if debug && err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

func JSONValidationError(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": ValidationErrorMessage,
		"errors":  fields,
	})
}
