package controller

import (
	"pracas_backend/internal/repository"
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FormController struct {
	FormService *service.FormService
}

func NewFormController(formService *service.FormService) *FormController {
	return &FormController{FormService: formService}
}

// swagger:model NameRequest
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// swagger:model QuestionIDsRequest
type QuestionIDsRequest struct {
	QuestionIDs []uint `json:"questionIds"`
}

// 分类

// CreateCategory godoc
// @Summary 创建分类
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body NameRequest true "category"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 409 {object} util.Response
// @Router /api/categories [post]
func (c *FormController) CreateCategory(ctx *gin.Context) {
	var req NameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	category, err := c.FormService.CreateCategory(util.GetPrincipal(ctx), req.Name)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, category)
}

// CreateSubcategory godoc
// @Summary 创建子分类
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "category id"
// @Param   body body NameRequest true "subcategory"
// @Success 201 {object} util.Response{data=model.Subcategory}
// @Failure 404 {object} util.Response
// @Router /api/categories/{id}/subcategories [post]
func (c *FormController) CreateSubcategory(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req NameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sub, err := c.FormService.CreateSubcategory(util.GetPrincipal(ctx), id, req.Name)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// ListCategories godoc
// @Summary 分类列表
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /api/categories [get]
func (c *FormController) ListCategories(ctx *gin.Context) {
	list, err := c.FormService.Categories(util.GetPrincipal(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// DeleteCategory godoc
// @Summary 删除分类
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "category id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "category has questions"
// @Router /api/categories/{id} [delete]
func (c *FormController) DeleteCategory(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.FormService.DeleteCategory(util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// 问题

// CreateQuestion godoc
// @Summary 创建问题
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionInput true "question"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/questions [post]
func (c *FormController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.FormService.CreateQuestion(util.GetPrincipal(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// ListQuestions godoc
// @Summary 问题列表
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Param   categoryId query int false "category"
// @Param   subcategoryId query int false "subcategory"
// @Param   active query bool false "active questions only"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/questions [get]
func (c *FormController) ListQuestions(ctx *gin.Context) {
	f := repository.QuestionFilter{
		CategoryID:    queryUint(ctx, "categoryId"),
		SubcategoryID: queryUint(ctx, "subcategoryId"),
		ActiveOnly:    ctx.Query("active") == "true",
	}
	list, err := c.FormService.Questions(util.GetPrincipal(ctx), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// SetQuestionActive godoc
// @Summary 启用或停用问题
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "question id"
// @Param   body body ActiveRequest true "active flag"
// @Success 200 {object} util.Response
// @Router /api/questions/{id}/active [patch]
func (c *FormController) SetQuestionActive(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req ActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.FormService.SetQuestionActive(util.GetPrincipal(ctx), id, *req.Active); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "active": *req.Active})
}

// 表单

// CreateForm godoc
// @Summary 创建表单
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.FormInput true "form"
// @Success 201 {object} util.Response{data=model.Form}
// @Failure 409 {object} util.Response "name taken"
// @Router /api/forms [post]
func (c *FormController) CreateForm(ctx *gin.Context) {
	var req service.FormInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	form, err := c.FormService.CreateForm(util.GetPrincipal(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, form)
}

// CreateVersion godoc
// @Summary 创建表单新版本
// @Description 未提供 questionIds 时沿用基础版本的问题
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "base form id"
// @Param   body body QuestionIDsRequest false "questions"
// @Success 201 {object} util.Response{data=model.Form}
// @Router /api/forms/{id}/versions [post]
func (c *FormController) CreateVersion(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req QuestionIDsRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	form, err := c.FormService.NewVersion(util.GetPrincipal(ctx), id, req.QuestionIDs)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, form)
}

// SetFormQuestions godoc
// @Summary 设置表单问题
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "form id"
// @Param   body body QuestionIDsRequest true "questions in order"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "form already has assessments"
// @Router /api/forms/{id}/questions [put]
func (c *FormController) SetFormQuestions(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req QuestionIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.FormService.SetQuestions(util.GetPrincipal(ctx), id, req.QuestionIDs); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// ListForms godoc
// @Summary 表单列表
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Form}
// @Router /api/forms [get]
func (c *FormController) ListForms(ctx *gin.Context) {
	list, err := c.FormService.Forms(util.GetPrincipal(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetForm godoc
// @Summary 获取表单结构
// @Description 按表单顺序返回问题及其选项、分类和计算
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "form id"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response
// @Router /api/forms/{id} [get]
func (c *FormController) GetForm(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	form, err := c.FormService.Schema(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, form)
}

// 计算

// CreateCalculation godoc
// @Summary 创建计算
// @Tags forms
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "form id"
// @Param   body body service.CalculationInput true "calculation"
// @Success 201 {object} util.Response{data=model.Calculation}
// @Failure 400 {object} util.Response
// @Router /api/forms/{id}/calculations [post]
func (c *FormController) CreateCalculation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.CalculationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	calc, err := c.FormService.CreateCalculation(util.GetPrincipal(ctx), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, calc)
}

// DeleteCalculation godoc
// @Summary 删除计算
// @Tags forms
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "form id"
// @Param   calculationId path int true "calculation id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/forms/{id}/calculations/{calculationId} [delete]
func (c *FormController) DeleteCalculation(ctx *gin.Context) {
	formID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	id, ok := paramID(ctx, "calculationId")
	if !ok {
		return
	}
	if err := c.FormService.DeleteCalculation(util.GetPrincipal(ctx), formID, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
