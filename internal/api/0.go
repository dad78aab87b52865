package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/spf13/cast"
)

var Provider = wire.NewSet(
	NewDatasetAPI,
	NewExecutionAPI,
	NewSchemaAPI,
	NewCommonAPI,
	NewServer,
)

// onGinBind 绑定失败时记录 VALIDATION 错误，由错误中间件输出
func onGinBind(c *gin.Context, val any, typ string) bool {
	var err error
	switch typ {
	case "JSON":
		err = c.ShouldBindJSON(val)
		// 允许空 body
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case "QUERY":
		err = c.ShouldBindQuery(val)
	default:
		err = c.ShouldBind(val)
	}
	if err != nil {
		_ = c.Error(apperr.Validation(err.Error()))
		c.Abort()
		return false
	}
	return true
}

func onGinResponse[T any](c *gin.Context, data T, err error) {
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, data)
}

func parseExecutionID(raw string) (uint64, error) {
	id, err := cast.ToUint64E(raw)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid execution id " + strconv.Quote(raw))
	}
	return id, nil
}
