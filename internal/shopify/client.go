package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// Config 一次执行使用的店铺凭据
type Config struct {
	StoreName   string
	AccessToken string
	APIVersion  string
}

// Normalize 去掉 https:// 和 .myshopify.com，缺省版本用 defaultVersion
func (c Config) Normalize(defaultVersion string) (Config, error) {
	store := strings.TrimSpace(c.StoreName)
	store = strings.TrimPrefix(store, "https://")
	store = strings.TrimPrefix(store, "http://")
	store = strings.TrimSuffix(store, "/")
	store = strings.TrimSuffix(store, ".myshopify.com")
	c.StoreName = store
	if c.APIVersion == "" {
		c.APIVersion = defaultVersion
	}
	if c.StoreName == "" || c.AccessToken == "" {
		return c, ErrMissingCredentials
	}
	return c, nil
}

type Options struct {
	BaseURLTemplate   string
	DefaultAPIVersion string
	MaxPageSize       int
	DefaultMaxItems   int
	PageDelay         time.Duration
	ErrorBodyLimit    int
	HTTPClient        *http.Client
}

func OptionsFromConfig(cfg config.ShopifyConfig) Options {
	return Options{
		BaseURLTemplate:   cfg.BaseURLTemplate,
		DefaultAPIVersion: cfg.DefaultAPIVersion,
		MaxPageSize:       cfg.MaxPageSize,
		DefaultMaxItems:   cfg.DefaultMaxItems,
		PageDelay:         cfg.PageDelay,
		ErrorBodyLimit:    cfg.ErrorBodyLimit,
		HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Client Admin GraphQL API 客户端，无状态，可并发使用
type Client struct {
	opts   Options
	logger *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxPageSize <= 0 || opts.MaxPageSize > 250 {
		opts.MaxPageSize = 250
	}
	if opts.DefaultMaxItems <= 0 {
		opts.DefaultMaxItems = 1000
	}
	if opts.ErrorBodyLimit <= 0 {
		opts.ErrorBodyLimit = 200
	}
	if opts.DefaultAPIVersion == "" {
		opts.DefaultAPIVersion = "2024-01"
	}
	if opts.BaseURLTemplate == "" {
		opts.BaseURLTemplate = "https://%s.myshopify.com/admin/api/%s/graphql.json"
	}
	return &Client{opts: opts, logger: logger}
}

func (c *Client) Options() Options { return c.opts }

func (c *Client) Endpoint(cfg Config) string {
	return fmt.Sprintf(c.opts.BaseURLTemplate, cfg.StoreName, cfg.APIVersion)
}

// Session 绑定凭据并统计 API 调用次数，一次执行一个
type Session struct {
	client *Client
	cfg    Config
	calls  atomic.Int64
	logger *zap.Logger
}

func (c *Client) NewSession(cfg Config) (*Session, error) {
	cfg, err := cfg.Normalize(c.opts.DefaultAPIVersion)
	if err != nil {
		return nil, err
	}
	return &Session{
		client: c,
		cfg:    cfg,
		logger: c.logger.With(zap.String("store", cfg.StoreName), zap.String("api_version", cfg.APIVersion)),
	}, nil
}

func (s *Session) Config() Config { return s.cfg }

// Calls 已发出的 HTTP 请求数，失败的也算
func (s *Session) Calls() int { return int(s.calls.Load()) }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Path    []any  `json:"path"`
	} `json:"errors"`
}

// Do 发送一次 GraphQL 请求，返回 data
func (s *Session) Do(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, errors.Wrap(err, "encode graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.Endpoint(s.cfg), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, s.cfg.AccessToken)

	s.calls.Add(1)
	resp, err := s.client.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Body: truncate(err.Error(), s.client.opts.ErrorBodyLimit), cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: truncate(err.Error(), s.client.opts.ErrorBodyLimit), cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(raw), s.client.opts.ErrorBodyLimit)}
	}

	var out graphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       truncate("invalid JSON response: "+string(raw), s.client.opts.ErrorBodyLimit),
			cause:      err,
		}
	}
	if len(out.Errors) > 0 {
		return nil, &GraphQLError{Message: out.Errors[0].Message, Path: out.Errors[0].Path, Count: len(out.Errors)}
	}
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	return out.Data, nil
}
