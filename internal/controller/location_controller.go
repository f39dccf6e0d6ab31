package controller

import (
	"net/http"
	"os"
	"strings"

	"pracas_backend/internal/repository"
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LocationController struct {
	LocationService *service.LocationService
}

func NewLocationController(locationService *service.LocationService) *LocationController {
	return &LocationController{LocationService: locationService}
}

// swagger:model PolygonRequest
type PolygonRequest struct {
	WKT string `json:"wkt" form:"wkt"`
}

// CreateLocation godoc
// @Summary 创建广场
// @Tags locations
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.LocationInput true "location"
// @Success 201 {object} util.Response{data=model.Location}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/locations [post]
func (c *LocationController) CreateLocation(ctx *gin.Context) {
	var req service.LocationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	loc, err := c.LocationService.Create(ctx.Request.Context(), util.GetPrincipal(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, loc)
}

// UpdateLocation godoc
// @Summary 更新广场
// @Tags locations
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Param   body body service.LocationInput true "location"
// @Success 200 {object} util.Response{data=model.Location}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/locations/{id} [put]
func (c *LocationController) UpdateLocation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.LocationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	loc, err := c.LocationService.Update(ctx.Request.Context(), util.GetPrincipal(ctx), id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, loc)
}

// GetLocation godoc
// @Summary 获取广场
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Success 200 {object} util.Response{data=model.Location}
// @Failure 404 {object} util.Response
// @Router /api/locations/{id} [get]
func (c *LocationController) GetLocation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	loc, err := c.LocationService.Get(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, loc)
}

// ListLocations godoc
// @Summary 广场列表
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   q query string false "name or popular name"
// @Param   cityId query int false "city"
// @Param   typeId query int false "type"
// @Param   categoryId query int false "category"
// @Param   isPark query bool false "parks only"
// @Success 200 {object} util.Response{data=[]model.Location}
// @Router /api/locations [get]
func (c *LocationController) ListLocations(ctx *gin.Context) {
	f := repository.LocationFilter{
		Query:      ctx.Query("q"),
		CityID:     queryUint(ctx, "cityId"),
		TypeID:     queryUint(ctx, "typeId"),
		CategoryID: queryUint(ctx, "categoryId"),
		IsPark:     queryBool(ctx, "isPark"),
	}
	list, err := c.LocationService.List(ctx.Request.Context(), util.GetPrincipal(ctx), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ListCities godoc
// @Summary 城市列表
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.City}
// @Router /api/cities [get]
func (c *LocationController) ListCities(ctx *gin.Context) {
	cities, err := c.LocationService.Cities(ctx.Request.Context(), util.GetPrincipal(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, cities)
}

// ListAdministrativeUnits godoc
// @Summary 行政区列表
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "city id"
// @Success 200 {object} util.Response{data=[]model.AdministrativeUnit}
// @Router /api/cities/{id}/administrative-units [get]
func (c *LocationController) ListAdministrativeUnits(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	units, err := c.LocationService.AdministrativeUnits(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, units)
}

// DeleteLocation godoc
// @Summary 删除广场
// @Description 存在评估时拒绝删除，并返回引用该广场的数据
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response{data=repository.LocationUsage}
// @Router /api/locations/{id} [delete]
func (c *LocationController) DeleteLocation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.LocationService.Delete(ctx.Request.Context(), util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// SetPolygon godoc
// @Summary 设置广场边界
// @Description 接受 file 字段的 shapefile 压缩包或 wkt 字段的多边形
// @Tags locations
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Param   file formData file false "zipped shapefile"
// @Param   wkt formData string false "polygon or multipolygon WKT"
// @Success 200 {object} util.Response{data=service.LocationPolygon}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/locations/{id}/polygon [put]
func (c *LocationController) SetPolygon(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	p := util.GetPrincipal(ctx)

	file, err := ctx.FormFile("file")
	if err != nil {
		var req PolygonRequest
		if err := ctx.ShouldBind(&req); err != nil || strings.TrimSpace(req.WKT) == "" {
			util.BadRequest(ctx, "file or wkt is required")
			return
		}
		polygon, err := c.LocationService.SetPolygonFromWKT(ctx.Request.Context(), p, id, req.WKT)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		util.Success(ctx, polygon)
		return
	}

	if file.Size > util.MaxShapefileSize {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "shapefile too large")
		return
	}
	src, err := file.Open()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	mimeType, err := util.ValidateMimeType(src, []string{util.MimeZip})
	src.Close()
	if err != nil || !util.IsZip(mimeType) {
		util.BadRequest(ctx, "file must be a zip archive")
		return
	}

	tmp, err := os.CreateTemp("", "shapefile-*.zip")
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	tmp.Close()
	defer os.Remove(tmp.Name())
	if err := ctx.SaveUploadedFile(file, tmp.Name()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	polygon, err := c.LocationService.SetPolygonFromShapefile(ctx.Request.Context(), p, id, tmp.Name())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, polygon)
}

// GetPolygon godoc
// @Summary 获取广场边界
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Success 200 {object} util.Response{data=service.LocationPolygon}
// @Failure 404 {object} util.Response
// @Router /api/locations/{id}/polygon [get]
func (c *LocationController) GetPolygon(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	polygon, err := c.LocationService.Polygon(util.GetPrincipal(ctx), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, polygon)
}

// ClearPolygon godoc
// @Summary 删除广场边界
// @Tags locations
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "location id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/locations/{id}/polygon [delete]
func (c *LocationController) ClearPolygon(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.LocationService.ClearPolygon(ctx.Request.Context(), util.GetPrincipal(ctx), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
