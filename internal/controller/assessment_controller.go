package controller

import (
	"fmt"
	"net/http"

	"pracas_backend/internal/repository"
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
	ReportService     *service.ReportService
}

func NewAssessmentController(assessmentService *service.AssessmentService, reportService *service.ReportService) *AssessmentController {
	return &AssessmentController{
		AssessmentService: assessmentService,
		ReportService:     reportService,
	}
}

// CreateAssessment godoc
// @Summary 创建评估
// @Tags assessments
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.AssessmentInput true "assessment"
// @Success 201 {object} util.Response{data=model.Assessment}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/assessments [post]
func (c *AssessmentController) CreateAssessment(ctx *gin.Context) {
	var req service.AssessmentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	a, err := c.AssessmentService.Create(util.GetPrincipal(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, a)
}

// ListAssessments godoc
// @Summary 评估列表
// @Tags assessments
// @Produce  json
// @Security ApiKeyAuth
// @Param   locationId query int false "location"
// @Param   formId query int false "form"
// @Param   userId query int false "user"
// @Param   finalized query bool false "finalized"
// @Param   page query int false "page" default(1)
// @Param   limit query int false "page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/assessments [get]
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	f := repository.AssessmentFilter{
		LocationID: queryUint(ctx, "locationId"),
		FormID:     queryUint(ctx, "formId"),
		UserID:     queryUint(ctx, "userId"),
		Finalized:  queryBool(ctx, "finalized"),
		Page:       queryInt(ctx, "page", 1),
		Limit:      queryInt(ctx, "limit", util.DefaultPageSize),
	}
	list, total, err := c.AssessmentService.List(util.GetPrincipal(ctx), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, limit := util.Page(f.Page, f.Limit)
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// GetAssessment godoc
// @Summary 获取评估
// @Description 返回评估及其原始答案和已选选项
// @Tags assessments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Success 200 {object} util.Response{data=model.Assessment}
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	a, err := c.AssessmentService.Get(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// DeleteAssessment godoc
// @Summary 删除评估
// @Tags assessments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id} [delete]
func (c *AssessmentController) DeleteAssessment(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.AssessmentService.Delete(util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// SaveResponses godoc
// @Summary 保存评估答案
// @Description 文本答案以最后一次写入为准，选项选择会替换已存储的选项，几何为GeoJSON。finalize 为真时设置结束时间，否则清空
// @Tags assessments
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Param   body body service.ResponsesInput true "answers"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id}/responses [put]
func (c *AssessmentController) SaveResponses(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.ResponsesInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.AssessmentService.SaveResponses(ctx.Request.Context(), util.GetPrincipal(ctx), id, req); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "finalized": req.Finalize})
}

// GetGeometries godoc
// @Summary 获取评估几何
// @Description 按问题返回已存储几何的WKT
// @Tags assessments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Success 200 {object} util.Response{data=[]repository.StoredGeometry}
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id}/geometries [get]
func (c *AssessmentController) GetGeometries(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	list, err := c.AssessmentService.Geometries(ctx.Request.Context(), util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetReport godoc
// @Summary 评估报告
// @Description 按分类和子分类统计的频次树，并附带计算结果
// @Tags reports
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Success 200 {object} util.Response{data=service.AssessmentReport}
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id}/report [get]
func (c *AssessmentController) GetReport(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	report, err := c.ReportService.Report(ctx.Request.Context(), util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// GetReportPDF godoc
// @Summary 评估报告PDF
// @Tags reports
// @Produce  application/pdf
// @Security ApiKeyAuth
// @Param   id path int true "assessment id"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/assessments/{id}/report.pdf [get]
func (c *AssessmentController) GetReportPDF(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	pdf, err := c.ReportService.PDF(ctx.Request.Context(), util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="assessment-%d.pdf"`, id))
	ctx.Data(http.StatusOK, util.MimePDF, pdf)
}

// GetReports godoc
// @Summary 多个评估报告
// @Tags reports
// @Produce  json
// @Security ApiKeyAuth
// @Param   ids query string true "comma separated assessment ids"
// @Success 200 {object} util.Response{data=[]service.AssessmentReport}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reports [get]
func (c *AssessmentController) GetReports(ctx *gin.Context) {
	ids, err := util.ParseIDList(ctx.Query("ids"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if len(ids) == 0 {
		util.BadRequest(ctx, "ids is required")
		return
	}
	reports, err := c.ReportService.Reports(ctx.Request.Context(), util.GetPrincipal(ctx), ids)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, reports)
}
