package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/models"
	"qr-booking-backend/services"
	"qr-booking-backend/utils"
)

type TrackRequest struct {
	Slug          string   `json:"slug" binding:"required"`
	Action        string   `json:"action" binding:"required"`
	ActivityID    *FlexInt `json:"activity_id"`
	ActivityTitle *string  `json:"activity_title" binding:"omitempty,max=255"`
}

type TrackingController struct {
	Tracker services.VisitTracker
}

func NewTrackingController(tracker services.VisitTracker) *TrackingController {
	return &TrackingController{Tracker: tracker}
}

// Track handles POST /track. Unknown slugs are accepted and dropped later so
// the beacon does not reveal which pages exist.
func (ctrl *TrackingController) Track(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid tracking payload")
		return
	}
	if !services.ValidSlug(req.Slug) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid slug format")
		return
	}
	action := models.VisitorAction(req.Action)
	if !action.Valid() {
		utils.JSONError(c, http.StatusBadRequest, "Invalid action")
		return
	}

	visit := services.Visit{
		Action:        action,
		Slug:          req.Slug,
		ActivityTitle: req.ActivityTitle,
		Request:       services.RequestInfoFrom(c.Request),
	}
	if req.ActivityID != nil && *req.ActivityID > 0 {
		id := uint(*req.ActivityID)
		visit.ActivityID = &id
	}
	ctrl.Tracker.TrackAsync(visit)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
