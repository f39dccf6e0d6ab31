package controller

import (
	"pracas_backend/internal/repository"
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 处理用户相关的HTTP请求
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// swagger:model RolesRequest
type RolesRequest struct {
	Roles []string `json:"roles"`
}

// swagger:model ActiveRequest
type ActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// swagger:model UsernameRequest
type UsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// GetUsers godoc
// @Summary 获取用户列表
// @Description 按姓名、邮箱或用户名分页搜索
// @Tags users
// @Produce  json
// @Security ApiKeyAuth
// @Param   q query string false "search text"
// @Param   sort query string false "name, email, username or createdAt"
// @Param   desc query bool false "descending"
// @Param   page query int false "page" default(1)
// @Param   limit query int false "page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response
// @Router /api/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	f := repository.UserFilter{
		Query: ctx.Query("q"),
		Sort:  ctx.DefaultQuery("sort", "name"),
		Desc:  ctx.Query("desc") == "true",
		Page:  queryInt(ctx, "page", 1),
		Limit: queryInt(ctx, "limit", util.DefaultPageSize),
	}
	users, total, err := c.UserService.Search(util.GetPrincipal(ctx), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page, limit := util.Page(f.Page, f.Limit)
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// GetUser godoc
// @Summary 获取用户
// @Tags users
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "user id"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	user, err := c.UserService.Get(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateRoles godoc
// @Summary 更新用户角色
// @Tags users
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "user id"
// @Param   body body RolesRequest true "roles"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/users/{id}/roles [put]
func (c *UserController) UpdateRoles(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req RolesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateRoles(util.GetPrincipal(ctx), id, req.Roles)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// SetActive godoc
// @Summary 启用或停用用户
// @Tags users
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "user id"
// @Param   body body ActiveRequest true "active flag"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/users/{id}/active [patch]
func (c *UserController) SetActive(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req ActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.SetActive(util.GetPrincipal(ctx), id, *req.Active); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "active": *req.Active})
}

// UpdateUsername godoc
// @Summary 修改用户名
// @Description 仅允许小写字母、数字和点
// @Tags users
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UsernameRequest true "username"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/users/me/username [put]
func (c *UserController) UpdateUsername(ctx *gin.Context) {
	var req UsernameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.UpdateUsername(util.GetPrincipal(ctx), req.Username); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"username": req.Username})
}
