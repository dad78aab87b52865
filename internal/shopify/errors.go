package shopify

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
)

var (
	ErrMissingCredentials = apperr.Validation("source is missing store name or access token")
	ErrNoConnection       = errors.New("no connection object (edges + pageInfo) found in response")
)

// TransportError 非 2xx 响应或网络错误。Body 已截断。
type TransportError struct {
	StatusCode int
	Body       string
	cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("shopify API request failed: %s", e.Body)
	}
	return fmt.Sprintf("shopify API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error          { return e.cause }
func (e *TransportError) ErrorCode() apperr.Code { return apperr.CodeUpstream }

// GraphQLError 200 响应里的 errors[]，只保留第一条
type GraphQLError struct {
	Message string
	Path    []any
	Count   int
}

func (e *GraphQLError) Error() string {
	return "GraphQL error: " + e.Message
}

func (e *GraphQLError) ErrorCode() apperr.Code { return apperr.CodeUpstream }

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
