package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabin-network-backend/internal/inventory"
	"cabin-network-backend/internal/model"
)

// GetStats returns the overview counters.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, inventory.ComputeStats(h.snapshot()))
}

// GetDeviceTemplates returns the supported uplink hardware.
func (h *Handler) GetDeviceTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, model.DeviceTemplates)
}

// GetZoneSummary returns the per-cabin summary of one zone.
func (h *Handler) GetZoneSummary(c *gin.Context) {
	z, ok := zoneParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inventory.ComputeZoneSummary(h.snapshot(), z))
}

// GetZoneCabins returns the grid of one zone filtered by q, type, port and
// status.
func (h *Handler) GetZoneCabins(c *gin.Context) {
	z, ok := zoneParam(c)
	if !ok {
		return
	}
	var q inventory.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Filters.Status != "" && q.Filters.Status != inventory.FilterAll && !model.Status(q.Filters.Status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	c.JSON(http.StatusOK, inventory.BuildZoneView(h.snapshot(), z, q))
}

// Search finds the workstation whose table name and key spell the query.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if inventory.Clean(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	hit, found := inventory.FindExact(h.snapshot(), q)
	if h.metrics != nil {
		h.metrics.RecordSearch(found)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"notice": "not found"})
		return
	}
	c.JSON(http.StatusOK, hit)
}

// GetWorkstations lists every workstation with the requested status.
func (h *Handler) GetWorkstations(c *gin.Context) {
	status := model.Status(c.Query("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be connected or offline"})
		return
	}
	c.JSON(http.StatusOK, inventory.ListByStatus(h.snapshot(), status))
}
