package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/logger"
	"qr-booking-backend/middleware"
	"qr-booking-backend/utils"
)

// ErrorReporter logs unexpected failures and writes the generic 500 body.
type ErrorReporter struct {
	Log   *logger.Logger
	Debug bool
}

func (r ErrorReporter) ServerError(c *gin.Context, err error) {
	r.Log.Error("API", fmt.Sprintf("[%s] %s %s: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err))
	utils.JSONInternalError(c, err, r.Debug)
}
