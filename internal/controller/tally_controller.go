package controller

import (
	"time"

	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TallyController struct {
	TallyService *service.TallyService
}

func NewTallyController(tallyService *service.TallyService) *TallyController {
	return &TallyController{TallyService: tallyService}
}

// swagger:model FinishTallyRequest
type FinishTallyRequest struct {
	EndDate *time.Time `json:"endDate"`
}

// CreateTally godoc
// @Summary 创建计数
// @Tags tallies
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Param   body body service.TallyInput true "tally"
// @Success 201 {object} util.Response{data=model.Tally}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/locations/{id}/tallies [post]
func (c *TallyController) CreateTally(ctx *gin.Context) {
	locationID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.TallyInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	t, err := c.TallyService.Create(util.GetPrincipal(ctx), locationID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, t)
}

// ListTallies godoc
// @Summary 计数列表
// @Tags tallies
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Success 200 {object} util.Response{data=[]model.Tally}
// @Router /api/locations/{id}/tallies [get]
func (c *TallyController) ListTallies(ctx *gin.Context) {
	locationID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	list, err := c.TallyService.List(util.GetPrincipal(ctx), locationID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetTally godoc
// @Summary 获取计数
// @Tags tallies
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "tally id"
// @Success 200 {object} util.Response{data=model.Tally}
// @Failure 404 {object} util.Response
// @Router /api/tallies/{id} [get]
func (c *TallyController) GetTally(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	t, err := c.TallyService.Get(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, t)
}

// AddPeople godoc
// @Summary 增加计数人员
// @Description 为一种人员特征增加计数
// @Tags tallies
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Param   tallyId path int true "tally id"
// @Param   body body service.PersonInput true "person profile"
// @Success 200 {object} util.Response{data=service.TallySummary}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "tally does not belong to the location"
// @Router /api/locations/{id}/tallies/{tallyId}/people [post]
func (c *TallyController) AddPeople(ctx *gin.Context) {
	locationID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	id, ok := paramID(ctx, "tallyId")
	if !ok {
		return
	}
	var req service.PersonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	summary, err := c.TallyService.AddPeople(util.GetPrincipal(ctx), locationID, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// GetSummary godoc
// @Summary 计数汇总
// @Description 按性别、年龄段和活动汇总
// @Tags tallies
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "tally id"
// @Success 200 {object} util.Response{data=service.TallySummary}
// @Failure 404 {object} util.Response
// @Router /api/tallies/{id}/summary [get]
func (c *TallyController) GetSummary(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	summary, err := c.TallyService.Summary(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// FinishTally godoc
// @Summary 结束计数
// @Tags tallies
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "tally id"
// @Param   body body FinishTallyRequest false "end date, now when omitted"
// @Success 200 {object} util.Response
// @Router /api/tallies/{id}/finish [post]
func (c *TallyController) FinishTally(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req FinishTallyRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	end := time.Now()
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if err := c.TallyService.Finish(util.GetPrincipal(ctx), id, end); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "endDate": end})
}

// DeleteTally godoc
// @Summary 删除计数
// @Tags tallies
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "tally id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tallies/{id} [delete]
func (c *TallyController) DeleteTally(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.TallyService.Delete(util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
