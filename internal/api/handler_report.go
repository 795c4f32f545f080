package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"cabin-network-backend/internal/inventory"
)

type reportResponse struct {
	Rows     []inventory.Row `json:"rows"`
	Switches []string        `json:"switches"`
	Total    int             `json:"total"`
}

func (h *Handler) reportRows(c *gin.Context) ([]inventory.Row, []inventory.Row, bool) {
	var f inventory.ReportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return nil, nil, false
	}
	all := inventory.Rows(h.snapshot())
	return all, inventory.FilterRows(all, f), true
}

// GetReport returns the filtered flat report and the switch names that can
// be filtered on.
func (h *Handler) GetReport(c *gin.Context) {
	all, rows, ok := h.reportRows(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reportResponse{
		Rows:     rows,
		Switches: inventory.UniqueSwitches(all),
		Total:    len(rows),
	})
}

// GetReportCSV streams the filtered report as CSV.
func (h *Handler) GetReportCSV(c *gin.Context) {
	_, rows, ok := h.reportRows(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := inventory.WriteCSV(&buf, rows); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="network_report.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
