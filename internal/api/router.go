package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"reservation-wizard-backend/config"
	"reservation-wizard-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	limit := rate.Limit(cfg.RateLimitPerSec)
	if limit <= 0 {
		limit = rate.Limit(10)
	}
	burst := int(limit)
	if burst < 5 {
		burst = 5
	}
	rateLimiter := mw.RateLimiter(limit, burst, cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/resources", caching, h.GetResources)
		api.GET("/resources/:kind", caching, h.GetResources)

		// Availability grids feed the calendar views.
		api.GET("/availability/:mode", caching, h.GetAvailability)

		// Wizard selection flow. Never cached: every reply reflects live
		// session state.
		api.POST("/wizard", h.CreateWizard)
		api.GET("/wizard/:id", h.GetWizard)
		api.POST("/wizard/:id/selection", h.ChangeSelection)
		api.POST("/wizard/:id/start", h.PickStart)
		api.POST("/wizard/:id/end", h.PickEnd)
		api.POST("/wizard/:id/validate", h.Validate)
		api.POST("/wizard/:id/confirm", h.Confirm)
		api.POST("/wizard/:id/outcome", h.ReportOutcome)
		api.DELETE("/wizard/:id", h.CancelWizard)

		api.POST("/bookings/validate", h.ValidateBooking)

		api.GET("/watches", h.GetWatch)
		api.PUT("/watches", h.PutWatch)
		api.DELETE("/watches", h.DeleteWatch)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
