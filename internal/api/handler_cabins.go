package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/mutation"
)

type createCabinRequest struct {
	Number  string         `json:"number" binding:"required"`
	Zone    string         `json:"zone" binding:"required"`
	Devices []model.Device `json:"devices"`
}

type refResponse struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// CreateCabin handles POST /api/cabins.
func (h *Handler) CreateCabin(c *gin.Context) {
	var req createCabinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	z, ok := model.ParseZone(req.Zone)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown zone"})
		return
	}
	ref, err := h.mutations.CreateCabin(c.Request.Context(), req.Number, z, req.Devices)
	h.writeResult(c, err, refResponse{Path: ref.Path(), ID: ref.CabinID})
}

type renameCabinRequest struct {
	Number string `json:"number" binding:"required"`
}

// RenameCabin handles PATCH /api/cabins/:zone/:cabin.
func (h *Handler) RenameCabin(c *gin.Context) {
	ref, ok := cabinRef(c)
	if !ok {
		return
	}
	var req renameCabinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.writeResult(c, h.mutations.RenameCabin(c.Request.Context(), ref, req.Number), nil)
}

// DeleteCabin handles DELETE /api/cabins/:zone/:cabin.
func (h *Handler) DeleteCabin(c *gin.Context) {
	ref, ok := cabinRef(c)
	if !ok || !confirmed(c) {
		return
	}
	h.writeResult(c, h.mutations.DeleteCabin(c.Request.Context(), ref), nil)
}

type setDevicesRequest struct {
	Devices []model.Device `json:"devices"`
}

// SetDevices handles PUT /api/cabins/:zone/:cabin/devices.
func (h *Handler) SetDevices(c *gin.Context) {
	ref, ok := cabinRef(c)
	if !ok {
		return
	}
	var req setDevicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.writeResult(c, h.mutations.SetDevices(c.Request.Context(), ref, req.Devices), nil)
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenameDevice handles PATCH /api/cabins/:zone/:cabin/devices/:device.
func (h *Handler) RenameDevice(c *gin.Context) {
	ref, ok := cabinRef(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.writeResult(c, h.mutations.RenameDevice(c.Request.Context(), ref, c.Param("device"), req.Name), nil)
}

// AddTable handles POST /api/cabins/:zone/:cabin/tables.
func (h *Handler) AddTable(c *gin.Context) {
	ref, ok := cabinRef(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	table, err := h.mutations.AddTable(c.Request.Context(), ref, req.Name)
	h.writeResult(c, err, refResponse{Path: table.Path(), ID: table.TableID})
}

// RenameTable handles PATCH /api/cabins/:zone/:cabin/tables/:table.
func (h *Handler) RenameTable(c *gin.Context) {
	ref, ok := tableRef(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.writeResult(c, h.mutations.RenameTable(c.Request.Context(), ref, req.Name), nil)
}

// DeleteTable handles DELETE /api/cabins/:zone/:cabin/tables/:table.
func (h *Handler) DeleteTable(c *gin.Context) {
	ref, ok := tableRef(c)
	if !ok || !confirmed(c) {
		return
	}
	h.writeResult(c, h.mutations.DeleteTable(c.Request.Context(), ref), nil)
}

// AddWorkstation handles POST /api/cabins/:zone/:cabin/tables/:table/pcs.
func (h *Handler) AddWorkstation(c *gin.Context) {
	ref, ok := tableRef(c)
	if !ok {
		return
	}
	pc, err := h.mutations.AddWorkstation(c.Request.Context(), ref)
	h.writeResult(c, err, refResponse{Path: pc.Path(), ID: pc.PCID})
}

// UpdateWorkstation handles PATCH .../pcs/:pc. Only the fields present in
// the body are written.
func (h *Handler) UpdateWorkstation(c *gin.Context) {
	ref, ok := pcRef(c)
	if !ok {
		return
	}
	var patch mutation.WorkstationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}
	h.writeResult(c, h.mutations.UpdateWorkstation(c.Request.Context(), ref, patch), nil)
}

// ResetWorkstation handles POST .../pcs/:pc/reset.
func (h *Handler) ResetWorkstation(c *gin.Context) {
	ref, ok := pcRef(c)
	if !ok {
		return
	}
	h.writeResult(c, h.mutations.ResetWorkstation(c.Request.Context(), ref), nil)
}

// DeleteWorkstation handles DELETE .../pcs/:pc.
func (h *Handler) DeleteWorkstation(c *gin.Context) {
	ref, ok := pcRef(c)
	if !ok || !confirmed(c) {
		return
	}
	h.writeResult(c, h.mutations.DeleteWorkstation(c.Request.Context(), ref), nil)
}
