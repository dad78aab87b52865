package middleware

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/scheduler"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/logger"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code        apperr.Code `json:"code"`
	Message     string      `json:"message"`
	// ExecutionID CONFLICT 时为正在进行的执行
	ExecutionID uint64      `json:"executionId,omitempty"`
	RequestID   string      `json:"requestId,omitempty"`
}

// NewErrorResponse 按错误码生成响应；内部错误只返回通用消息
func NewErrorResponse(err error) (int, ErrorResponse) {
	code := apperr.CodeOf(err)
	resp := ErrorResponse{Code: code, Message: apperr.PublicMessage(err)}
	var inflight *scheduler.InFlightError
	if errors.As(err, &inflight) {
		resp.ExecutionID = inflight.ExecutionID
	}
	return apperr.HTTPStatus(code), resp
}

// ErrorHandlingMiddleware 统一错误处理中间件
func ErrorHandlingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := errors.Newf("panic: %v", r)
				log.Error("panic recovered", append(logger.ErrorWithStack(err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", RequestIDFrom(c)))...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Code:      apperr.CodeInternal,
					Message:   "an internal error occurred",
					RequestID: RequestIDFrom(c),
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, resp := NewErrorResponse(err)
		resp.RequestID = RequestIDFrom(c)

		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", resp.RequestID),
			zap.String("code", string(resp.Code)),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request error", append(logger.ErrorWithStack(err), fields...)...)
		} else {
			log.Debug("request rejected", append(fields, zap.Error(err))...)
		}
		if !c.Writer.Written() {
			c.JSON(status, resp)
		}
	}
}
