package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/orm"
)

type HealthResp struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Uptime   string    `json:"uptime"`
	Time     time.Time `json:"time"`
}

type ICommonAPI interface {
	// HealthCheck 存活探针，数据库不可用时返回 500
	// @GET(health)
	HealthCheck(ctx *gin.Context) (*HealthResp, error)
}

var _ ICommonAPI = (*CommonAPI)(nil)

type CommonAPI struct {
	storage   *orm.Storage
	startedAt time.Time
}

func NewCommonAPI(storage *orm.Storage) *CommonAPI {
	return &CommonAPI{storage: storage, startedAt: time.Now()}
}

func (c *CommonAPI) HealthCheck(ctx *gin.Context) (*HealthResp, error) {
	if err := c.storage.Ping(); err != nil {
		return nil, apperr.Internal("database unavailable", err)
	}
	now := time.Now()
	return &HealthResp{
		Status:   "healthy",
		Database: "up",
		Uptime:   now.Sub(c.startedAt).Truncate(time.Second).String(),
		Time:     now,
	}, nil
}
