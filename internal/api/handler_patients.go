package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"medremind-backend/internal/adherence"
	"medremind-backend/internal/reminder"
)

// adherenceResponse is the API response for a patient's adherence.
type adherenceResponse struct {
	Identity string           `json:"identity"`
	AllTime  adherence.Report `json:"all_time"`
	Daily    adherence.Report `json:"daily"`
	Weekly   adherence.Report `json:"weekly"`
}

// GetAdherence handles the GET /api/patients/:identity/adherence request.
func (h *Handler) GetAdherence(c *gin.Context) {
	ctx := c.Request.Context()
	identity := c.Param("identity")

	resp := adherenceResponse{Identity: identity}
	var err error
	if resp.AllTime, err = h.reporter.AllTime(ctx, identity); err == nil {
		if resp.Daily, err = h.reporter.Daily(ctx, identity); err == nil {
			resp.Weekly, err = h.reporter.Weekly(ctx, identity)
		}
	}
	if err != nil {
		log.Printf("adherence for %s: %v", identity, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute adherence"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetReminders handles the GET /api/patients/:identity/reminders request.
func (h *Handler) GetReminders(c *gin.Context) {
	identity := c.Param("identity")
	jobs := h.reminders.PendingFor(identity)
	if jobs == nil {
		jobs = []reminder.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity, "reminders": jobs})
}
