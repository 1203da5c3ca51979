package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type postMessageRequest struct {
	From string `json:"from" binding:"required"`
	Body string `json:"body"`
}

// PostMessage handles the POST /api/messages request. It runs the same
// interpreter as the webhook and answers with the reply segments as JSON.
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	transcript := h.messages.Handle(c.Request.Context(), req.From, req.Body)
	c.JSON(http.StatusOK, gin.H{
		"replies": transcript.Replies,
		"text":    transcript.Text(),
	})
}
