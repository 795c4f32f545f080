package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"cabin-network-backend/config"
	"cabin-network-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. gatherer backs
// /metrics and may be nil.
func NewRouter(h *Handler, cfg config.ServerConfig, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(h.log))
	if h.metrics != nil {
		r.Use(mw.Metrics(h.metrics))
	}
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		h.log.Sugar().Warnf("ignoring trusted proxies: %v", err)
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)

	// Responses are keyed by snapshot revision, so the TTL only bounds memory.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.SnapshotCache(cache.New(ttl, 2*ttl), ttl, func() uint64 {
		_, rev := h.inventory.Current()
		return rev
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		api.GET("/stats", caching, h.GetStats)
		api.GET("/device-templates", h.GetDeviceTemplates)
		api.GET("/zones/:zone/summary", caching, h.GetZoneSummary)
		api.GET("/zones/:zone/cabins", caching, h.GetZoneCabins)
		api.GET("/search", h.Search)
		api.GET("/workstations", caching, h.GetWorkstations)
		api.GET("/report", caching, h.GetReport)
		api.GET("/report.csv", caching, h.GetReportCSV)

		api.POST("/cabins", h.CreateCabin)
		cabin := api.Group("/cabins/:zone/:cabin")
		{
			cabin.PATCH("", h.RenameCabin)
			cabin.DELETE("", h.DeleteCabin)
			cabin.PUT("/devices", h.SetDevices)
			cabin.PATCH("/devices/:device", h.RenameDevice)
			cabin.POST("/tables", h.AddTable)
			cabin.PATCH("/tables/:table", h.RenameTable)
			cabin.DELETE("/tables/:table", h.DeleteTable)
			cabin.POST("/tables/:table/pcs", h.AddWorkstation)
			cabin.PATCH("/tables/:table/pcs/:pc", h.UpdateWorkstation)
			cabin.DELETE("/tables/:table/pcs/:pc", h.DeleteWorkstation)
			cabin.POST("/tables/:table/pcs/:pc/reset", h.ResetWorkstation)
		}

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
