package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bunkbook/internal/service"
	"github.com/noah-isme/bunkbook/pkg/response"
)

type exportService interface {
	Export(dataset, format string) (*service.ExportResult, error)
}

// ExportHandler streams the timetable and bunk ledger as CSV or PDF downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Download the weekly timetable or the bunk ledger
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param dataset path string true "timetable or bunks"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export/{dataset} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	result, err := h.service.Export(c.Param("dataset"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}
