package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"medremind-backend/config"
	"medremind-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID())

	limit := rate.Limit(cfg.RateLimitPerSec)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/healthz", handler.GetHealth)

	// Webhook traffic is limited per sender, not per gateway IP.
	r.POST("/webhook/whatsapp", mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByFormValue("From")), handler.PostWhatsAppWebhook)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByClientIP))
	{
		api.POST("/messages", handler.PostMessage)

		api.GET("/patients/:identity/adherence", caching, handler.GetAdherence)
		api.GET("/patients/:identity/reminders", handler.GetReminders)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
