// notifications.go implements handlers for notification state transitions.
package v1

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/db/repositories"
)

// NotificationHandlers handles notification state endpoints
type NotificationHandlers struct {
	notifRepo *repositories.NotificationRepository
}

// NewNotificationHandlers creates a new NotificationHandlers instance
func NewNotificationHandlers(db *sql.DB) *NotificationHandlers {
	return &NotificationHandlers{
		notifRepo: repositories.NewNotificationRepository(db),
	}
}

// UpdateNotificationStateRequest represents a state transition request
type UpdateNotificationStateRequest struct {
	State string `json:"state" binding:"required"`
}

// UpdateStateHandler transitions a notification to a new state. Dismissing is
// rejected for notifications whose dismissable flag is false; those can only be
// resolved by the condition that raised them (or cancelled by the janitor).
// PATCH /api/v1/notifications/:id
func (h *NotificationHandlers) UpdateStateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateNotificationStateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if !models.ValidNotificationState(req.State) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid notification state",
			})
			return
		}

		notif, err := h.notifRepo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve notification",
			})
			return
		}
		if notif == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}

		if req.State == models.NotificationStateDismissed && !notif.Dismissable {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Notification is not dismissable",
			})
			return
		}

		if err := h.notifRepo.UpdateState(c.Request.Context(), notif.ID, req.State); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update notification state",
			})
			return
		}

		notif.State = req.State
		c.JSON(http.StatusOK, gin.H{
			"notification": notificationStateResponse{
				ID:          notif.ID,
				MessageID:   notif.MessageID,
				State:       notif.State,
				Dismissable: notif.Dismissable,
			},
		})
	}
}

// notificationStateResponse is the JSON shape returned after a state change
type notificationStateResponse struct {
	ID          string `json:"id"`
	MessageID   string `json:"message_id"`
	State       string `json:"state"`
	Dismissable bool   `json:"dismissable"`
}
