package api

import (
	"encoding/xml"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// twimlResponse is the messaging reply document the gateway expects.
type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// webhookReply is the outcome of one MessageSid. done is closed once resp
// is final.
type webhookReply struct {
	done chan struct{}
	resp twimlResponse
}

// PostWhatsAppWebhook handles the POST /webhook/whatsapp request.
func (h *Handler) PostWhatsAppWebhook(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}
	identity := strings.TrimPrefix(from, h.prefix)
	body := c.PostForm("Body")

	sid := c.PostForm("MessageSid")
	if sid == "" {
		c.XML(http.StatusOK, twimlResponse{Messages: h.messages.Handle(c.Request.Context(), identity, body).Replies})
		return
	}

	// Add is the claim: exactly one delivery of a MessageSid runs the commands.
	claim := &webhookReply{done: make(chan struct{})}
	if err := h.seen.Add(sid, claim, cache.DefaultExpiration); err != nil {
		if prev, found := h.seen.Get(sid); found {
			h.replay(c, sid, identity, prev.(*webhookReply))
			return
		}
		// The claim expired in between; handle without remembering.
		claim = &webhookReply{done: make(chan struct{})}
	}

	func() {
		defer close(claim.done)
		claim.resp = twimlResponse{Messages: h.messages.Handle(c.Request.Context(), identity, body).Replies}
	}()
	c.XML(http.StatusOK, claim.resp)
}

// replay answers a redelivery with the reply of the first delivery, waiting
// for it when that delivery is still running.
func (h *Handler) replay(c *gin.Context, sid, identity string, reply *webhookReply) {
	select {
	case <-reply.done:
		log.Printf("webhook: redelivery of %s from %s, replaying reply", sid, identity)
		c.XML(http.StatusOK, reply.resp)
	case <-c.Request.Context().Done():
		c.Status(http.StatusServiceUnavailable)
	}
}
