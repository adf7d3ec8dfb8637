package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/services"
	"qr-booking-backend/utils"
)

type QRCodeController struct {
	Pages       *services.PageService
	FrontendURL string
	Errors      ErrorReporter
}

func NewQRCodeController(pages *services.PageService, frontendURL string, errs ErrorReporter) *QRCodeController {
	return &QRCodeController{Pages: pages, FrontendURL: frontendURL, Errors: errs}
}

// Image handles GET /qr-codes/:slug/image and returns a PNG of the page link.
func (ctrl *QRCodeController) Image(c *gin.Context) {
	slug := c.Param("slug")
	if err := ctrl.Pages.Exists(c.Request.Context(), slug); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSlug):
			utils.JSONError(c, http.StatusBadRequest, "Invalid slug format")
		case errors.Is(err, services.ErrPageNotFound):
			utils.JSONError(c, http.StatusNotFound, "QR code not found")
		default:
			ctrl.Errors.ServerError(c, err)
		}
		return
	}

	png, err := utils.RenderQRCode(utils.BuildPageLink(ctrl.FrontendURL, slug), utils.DefaultQRSize)
	if err != nil {
		ctrl.Errors.ServerError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
