package controller

import (
	"strconv"

	"pracas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// paramID reads a positive id path parameter and answers 400 otherwise.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryUint(ctx *gin.Context, name string) uint {
	return util.MustParseUint(ctx.Query(name))
}

func queryInt(ctx *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(ctx.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// queryBool returns nil when the parameter is absent or not a boolean.
func queryBool(ctx *gin.Context, name string) *bool {
	v, err := strconv.ParseBool(ctx.Query(name))
	if err != nil {
		return nil
	}
	return &v
}
