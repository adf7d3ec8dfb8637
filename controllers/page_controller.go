package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/models"
	"qr-booking-backend/services"
	"qr-booking-backend/utils"
)

type PageController struct {
	Pages   *services.PageService
	Tracker services.VisitTracker
	Errors  ErrorReporter
}

func NewPageController(pages *services.PageService, tracker services.VisitTracker, errs ErrorReporter) *PageController {
	return &PageController{Pages: pages, Tracker: tracker, Errors: errs}
}

// Show handles GET /:slug and records the scan in the background.
func (ctrl *PageController) Show(c *gin.Context) {
	slug := c.Param("slug")

	bundle, err := ctrl.Pages.Resolve(c.Request.Context(), slug)
	if err != nil {
		ctrl.handleLookupError(c, err)
		return
	}

	ctrl.Tracker.TrackAsync(services.Visit{
		Action:  models.ActionQRScan,
		Slug:    slug,
		Request: services.RequestInfoFrom(c.Request),
	})
	c.JSON(http.StatusOK, bundle)
}

// ShowActivity handles GET /:slug/:id/:resourceType.
func (ctrl *PageController) ShowActivity(c *gin.Context) {
	slug := c.Param("slug")
	if !services.ValidSlug(slug) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid slug format")
		return
	}
	rt, err := services.ParseResourceType(c.Param("resourceType"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid resource type")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "Invalid activity id")
		return
	}

	detail, err := ctrl.Pages.Detail(c.Request.Context(), slug, uint(id), rt)
	if err != nil {
		ctrl.handleLookupError(c, err)
		return
	}

	activityID := detail.Activity.ID
	title := detail.Activity.Title
	ctrl.Tracker.TrackAsync(services.Visit{
		Action:        models.ActionActivityClick,
		Slug:          slug,
		ActivityID:    &activityID,
		ActivityTitle: &title,
		Request:       services.RequestInfoFrom(c.Request),
	})
	c.JSON(http.StatusOK, detail)
}

func (ctrl *PageController) handleLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSlug):
		utils.JSONError(c, http.StatusBadRequest, "Invalid slug format")
	case errors.Is(err, services.ErrInvalidResourceType):
		utils.JSONError(c, http.StatusBadRequest, "Invalid resource type")
	case errors.Is(err, services.ErrPageNotFound):
		utils.JSONError(c, http.StatusNotFound, "Page not found")
	case errors.Is(err, services.ErrActivityNotFound):
		utils.JSONError(c, http.StatusNotFound, "Activity not found")
	default:
		ctrl.Errors.ServerError(c, err)
	}
}
