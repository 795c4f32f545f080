package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cabin-network-backend/internal/metrics"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/mutation"
	"cabin-network-backend/internal/store"
)

// Inventory is the read side of the live session.
type Inventory interface {
	Current() (model.Snapshot, uint64)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	webpush   *webpush.Options
	inventory Inventory
	mutations *mutation.Facade
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// Deps lists what the handlers need. Store and Webpush may be nil when
// alerts are disabled; Metrics may be nil.
type Deps struct {
	Store     store.Store
	Webpush   *webpush.Options
	Inventory Inventory
	Mutations *mutation.Facade
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:     d.Store,
		webpush:   d.Webpush,
		inventory: d.Inventory,
		mutations: d.Mutations,
		metrics:   d.Metrics,
		log:       log,
	}
}

func (h *Handler) snapshot() model.Snapshot {
	snap, _ := h.inventory.Current()
	return snap
}

// zoneParam resolves the :zone path parameter, answering 400 when unknown.
func zoneParam(c *gin.Context) (model.Zone, bool) {
	z, ok := model.ParseZone(c.Param("zone"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown zone"})
		return "", false
	}
	return z, true
}

func cabinRef(c *gin.Context) (model.CabinRef, bool) {
	z, ok := zoneParam(c)
	if !ok {
		return model.CabinRef{}, false
	}
	return model.CabinRef{Zone: z, CabinID: c.Param("cabin")}, true
}

func tableRef(c *gin.Context) (model.TableRef, bool) {
	ref, ok := cabinRef(c)
	if !ok {
		return model.TableRef{}, false
	}
	return model.TableRef{CabinRef: ref, TableID: c.Param("table")}, true
}

func pcRef(c *gin.Context) (model.PCRef, bool) {
	ref, ok := tableRef(c)
	if !ok {
		return model.PCRef{}, false
	}
	return model.PCRef{TableRef: ref, PCID: c.Param("pc")}, true
}

// confirmed guards destructive operations behind ?confirm=true.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirm=true is required to delete"})
		return false
	}
	return true
}

// writeResult maps a mutation outcome onto the response. Store failures are
// reported without detail.
func (h *Handler) writeResult(c *gin.Context, err error, body any) {
	switch {
	case err == nil:
		if body == nil {
			c.Status(http.StatusAccepted)
			return
		}
		c.JSON(http.StatusAccepted, body)
	case errors.Is(err, mutation.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, mutation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
