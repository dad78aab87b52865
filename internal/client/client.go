// Package client 服务端 HTTP 接口的 Go 客户端，CLI 和轮询器使用。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api/middleware"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/preview"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/scheduler"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/schema"
)

type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

var _ preview.Fetcher = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New baseURL 形如 http://localhost:8080；userID 作为 X-User-ID 发送
func New(baseURL, userID string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Execute(ctx context.Context, datasetID string) (uint64, error) {
	var out struct {
		ExecutionID uint64 `json:"executionId"`
	}
	path := "/api/v1/datasets/" + url.PathEscape(datasetID) + "/execute"
	if err := c.do(ctx, http.MethodPost, path, c.userID, nil, &out); err != nil {
		var inflight *scheduler.InFlightError
		if errors.As(err, &inflight) {
			inflight.DatasetID = datasetID
		}
		return 0, err
	}
	return out.ExecutionID, nil
}

// Preview req.UserID 为空时使用客户端的用户
func (c *Client) Preview(ctx context.Context, req preview.Request) (*preview.PreviewData, error) {
	q := url.Values{}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.CheckStatus {
		q.Set("checkStatus", "true")
	}
	path := fmt.Sprintf("/api/v1/executions/%d/preview", req.ExecutionID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	user := req.UserID
	if user == "" {
		user = c.userID
	}
	var out preview.PreviewData
	if err := c.do(ctx, http.MethodGet, path, user, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reset(ctx context.Context, executionID uint64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/executions/%d/reset", executionID), c.userID, nil, nil)
}

// ResetStuck olderThan 为 0 时使用服务端配置的阈值
func (c *Client) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	body := map[string]string{}
	if olderThan > 0 {
		body["olderThan"] = olderThan.String()
	}
	var out struct {
		Reset int64 `json:"reset"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/executions/reset-stuck", c.userID, body, &out); err != nil {
		return 0, err
	}
	return out.Reset, nil
}

func (c *Client) GetSchema(ctx context.Context, sourceID, apiVersion string, force bool) (*schema.Result, error) {
	q := url.Values{}
	if apiVersion != "" {
		q.Set("api_version", apiVersion)
	}
	if force {
		q.Set("force", "true")
	}
	path := "/api/v1/sources/" + url.PathEscape(sourceID) + "/schema"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out schema.Result
	if err := c.do(ctx, http.MethodGet, path, c.userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, userID string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// decodeError 还原服务端的错误码；CONFLICT 带执行 ID 时还原为 InFlightError
func decodeError(status int, data []byte) error {
	var er middleware.ErrorResponse
	if err := json.Unmarshal(data, &er); err != nil || er.Code == "" {
		return apperr.New(apperr.CodeInternal, fmt.Sprintf("unexpected response status %d", status), nil)
	}
	if er.Code == apperr.CodeConflict && er.ExecutionID != 0 {
		return &scheduler.InFlightError{ExecutionID: er.ExecutionID}
	}
	return apperr.New(er.Code, er.Message, nil)
}
