package controller

import (
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InviteController struct {
	InviteService *service.InviteService
}

func NewInviteController(inviteService *service.InviteService) *InviteController {
	return &InviteController{InviteService: inviteService}
}

// swagger:model InviteRequest
type InviteRequest struct {
	Email string   `json:"email" binding:"required,email"`
	Roles []string `json:"roles"`
}

// CreateInvite godoc
// @Summary 创建邀请
// @Description 返回邀请及其注册链接
// @Tags invites
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body InviteRequest true "invite"
// @Success 201 {object} util.Response{data=service.InviteLink}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/invites [post]
func (c *InviteController) CreateInvite(ctx *gin.Context) {
	var req InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	link, err := c.InviteService.Create(util.GetPrincipal(ctx), req.Email, req.Roles)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, link)
}

// UpdateInviteRoles godoc
// @Summary 更新邀请角色
// @Tags invites
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "invite id"
// @Param   body body RolesRequest true "roles"
// @Success 200 {object} util.Response{data=model.Invite}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/invites/{id}/roles [put]
func (c *InviteController) UpdateInviteRoles(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req RolesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	invite, err := c.InviteService.UpdateRoles(util.GetPrincipal(ctx), id, req.Roles)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, invite)
}

// ListInvites godoc
// @Summary 邀请列表
// @Tags invites
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.InviteLink}
// @Router /api/invites [get]
func (c *InviteController) ListInvites(ctx *gin.Context) {
	invites, err := c.InviteService.List(util.GetPrincipal(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, invites)
}

// DeleteInvite godoc
// @Summary 删除邀请
// @Tags invites
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "invite id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/invites/{id} [delete]
func (c *InviteController) DeleteInvite(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.InviteService.Delete(util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
