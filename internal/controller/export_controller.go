package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// ExportCSV godoc
// @Summary 导出CSV
// @Description 导出所选广场的登记信息、评估和计数汇总
// @Tags export
// @Accept  json
// @Produce  text/csv
// @Security ApiKeyAuth
// @Param   body body service.ExportInput true "selection"
// @Success 200 {file} file
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/export/csv [post]
func (c *ExportController) ExportCSV(ctx *gin.Context) {
	var req service.ExportInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := c.ExportService.CSV(ctx.Request.Context(), util.GetPrincipal(ctx), req, &buf); err != nil {
		util.HandleError(ctx, err)
		return
	}
	name := fmt.Sprintf("pracas-%s.csv", time.Now().Format("20060102150405"))
	ctx.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.Data(http.StatusOK, util.MimeCSV+"; charset=utf-8", buf.Bytes())
}
