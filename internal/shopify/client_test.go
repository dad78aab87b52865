package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Path      string
	Token     string
	Query     string
	Variables map[string]any
}

type fakeShop struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(n int, req recordedRequest) (int, string)
}

func (f *fakeShop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	rec := recordedRequest{
		Path:      r.URL.Path,
		Token:     r.Header.Get("X-Shopify-Access-Token"),
		Query:     body.Query,
		Variables: body.Variables,
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	n := len(f.requests)
	f.mu.Unlock()

	status, payload := f.handler(n, rec)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func newTestSession(t *testing.T, shop *fakeShop, mutate func(*Options)) *Session {
	t.Helper()
	srv := httptest.NewServer(shop)
	t.Cleanup(srv.Close)

	opts := Options{
		BaseURLTemplate:   srv.URL + "/%s/%s/graphql.json",
		DefaultAPIVersion: "2024-01",
		MaxPageSize:       250,
		DefaultMaxItems:   1000,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewClient(opts, zap.NewNop()).NewSession(Config{StoreName: "acme", AccessToken: "shpat_test"})
	require.NoError(t, err)
	return s
}

func productsPage(start, count int, hasNext bool, cursor string) string {
	edges := make([]string, 0, count)
	for i := start; i < start+count; i++ {
		edges = append(edges, fmt.Sprintf(`{"node":{"id":"gid://shopify/Product/%d"}}`, i))
	}
	return fmt.Sprintf(`{"data":{"products":{"edges":[%s],"pageInfo":{"hasNextPage":%t,"endCursor":%q}}}}`,
		strings.Join(edges, ","), hasNext, cursor)
}

const productsQuery = `query Products($first: Int, $after: String) {
  products(first: $first, after: $after) { edges { node { id } } pageInfo { hasNextPage endCursor } }
}`

func TestDoSendsCredentials(t *testing.T) {
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusOK, `{"data":{"shop":{"name":"Acme"}}}`
	}}
	s := newTestSession(t, shop, nil)

	data, err := s.Do(context.Background(), "{ shop { name } }", nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", data["shop"].(map[string]any)["name"])

	require.Len(t, shop.requests, 1)
	assert.Equal(t, "/acme/2024-01/graphql.json", shop.requests[0].Path)
	assert.Equal(t, "shpat_test", shop.requests[0].Token)
	assert.Equal(t, 1, s.Calls())
}

func TestDoTransportErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusInternalServerError, long
	}}
	s := newTestSession(t, shop, nil)

	_, err := s.Do(context.Background(), "{ shop { name } }", nil)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Len(t, te.Body, 200)
	assert.Equal(t, apperr.CodeUpstream, apperr.CodeOf(err))
}

func TestDoGraphQLErrorUsesFirstMessage(t *testing.T) {
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusOK, `{"data":null,"errors":[{"message":"Throttled"},{"message":"second"}]}`
	}}
	s := newTestSession(t, shop, nil)

	_, err := s.Do(context.Background(), "{ shop { name } }", nil)
	var ge *GraphQLError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "Throttled", ge.Message)
	assert.Equal(t, 2, ge.Count)
}

func TestPaginateConcatenatesPagesInOrder(t *testing.T) {
	shop := &fakeShop{handler: func(n int, _ recordedRequest) (int, string) {
		switch n {
		case 1:
			return http.StatusOK, productsPage(0, 2, true, "c1")
		case 2:
			return http.StatusOK, productsPage(2, 2, true, "c2")
		default:
			return http.StatusOK, productsPage(4, 1, false, "c3")
		}
	}}
	s := newTestSession(t, shop, nil)

	items, err := s.Paginate(context.Background(), PageRequest{Query: productsQuery, MaxItems: 100})
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("gid://shopify/Product/%d", i), item["id"])
	}

	require.Len(t, shop.requests, 3)
	assert.Equal(t, 3, s.Calls())
	assert.Nil(t, shop.requests[0].Variables["after"])
	assert.Equal(t, float64(100), shop.requests[0].Variables["first"])
	assert.Equal(t, "c1", shop.requests[1].Variables["after"])
	assert.Equal(t, "c2", shop.requests[2].Variables["after"])
}

func TestPaginateWaitsPageDelayAfterEachResponse(t *testing.T) {
	var mu sync.Mutex
	var arrived, responded []time.Time
	shop := &fakeShop{handler: func(n int, _ recordedRequest) (int, string) {
		mu.Lock()
		arrived = append(arrived, time.Now())
		mu.Unlock()
		time.Sleep(60 * time.Millisecond)
		defer func() {
			mu.Lock()
			responded = append(responded, time.Now())
			mu.Unlock()
		}()
		return http.StatusOK, productsPage(n*10, 1, n < 3, fmt.Sprintf("c%d", n))
	}}
	s := newTestSession(t, shop, func(o *Options) { o.PageDelay = 40 * time.Millisecond })

	items, err := s.Paginate(context.Background(), PageRequest{Query: productsQuery, MaxItems: 100})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrived, 3)
	for i := 1; i < len(arrived); i++ {
		assert.GreaterOrEqual(t, arrived[i].Sub(responded[i-1]), 35*time.Millisecond, "page %d", i+1)
	}
}

func TestPaginateStopsAtMaxItems(t *testing.T) {
	shop := &fakeShop{handler: func(n int, req recordedRequest) (int, string) {
		first := int(req.Variables["first"].(float64))
		return http.StatusOK, productsPage((n-1)*10, first, true, fmt.Sprintf("c%d", n))
	}}
	s := newTestSession(t, shop, func(o *Options) { o.MaxPageSize = 2 })

	items, err := s.Paginate(context.Background(), PageRequest{Query: productsQuery, MaxItems: 3})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	require.Len(t, shop.requests, 2)
	assert.Equal(t, float64(2), shop.requests[0].Variables["first"])
	assert.Equal(t, float64(1), shop.requests[1].Variables["first"])
}

func TestPaginateTruncatesOversizedPage(t *testing.T) {
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusOK, productsPage(0, 10, true, "c1")
	}}
	s := newTestSession(t, shop, nil)

	items, err := s.Paginate(context.Background(), PageRequest{Query: productsQuery, MaxItems: 4})
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Len(t, shop.requests, 1)
}

func TestPaginateInjectsVariables(t *testing.T) {
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusOK, productsPage(0, 1, false, "")
	}}
	s := newTestSession(t, shop, nil)

	_, err := s.Paginate(context.Background(), PageRequest{
		Query:     `query ($query: String) { products(query: $query) { edges { node { id } } pageInfo { hasNextPage endCursor } } }`,
		Variables: map[string]any{"query": "status:active"},
	})
	require.NoError(t, err)

	require.Len(t, shop.requests, 1)
	sent := shop.requests[0]
	assert.Contains(t, sent.Query, "$first: Int")
	assert.Contains(t, sent.Query, "$after: String")
	assert.Equal(t, "status:active", sent.Variables["query"])
	assert.Equal(t, float64(250), sent.Variables["first"])
}

func TestPaginateFailsWithoutPartialResults(t *testing.T) {
	shop := &fakeShop{handler: func(n int, _ recordedRequest) (int, string) {
		if n == 1 {
			return http.StatusOK, productsPage(0, 2, true, "c1")
		}
		return http.StatusBadGateway, "upstream down"
	}}
	s := newTestSession(t, shop, nil)

	items, err := s.Paginate(context.Background(), PageRequest{Query: productsQuery})
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, 2, s.Calls())
}

func TestPaginateNoConnection(t *testing.T) {
	shop := &fakeShop{handler: func(int, recordedRequest) (int, string) {
		return http.StatusOK, `{"data":{"shop":{"name":"Acme"}}}`
	}}
	s := newTestSession(t, shop, nil)

	_, err := s.Paginate(context.Background(), PageRequest{Query: "{ shop { name } }"})
	assert.True(t, errors.Is(err, ErrNoConnection))
}

func TestNewSessionRequiresCredentials(t *testing.T) {
	c := NewClient(Options{}, zap.NewNop())
	_, err := c.NewSession(Config{StoreName: "acme"})
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	s, err := c.NewSession(Config{StoreName: "https://acme.myshopify.com/", AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "acme", s.Config().StoreName)
	assert.Equal(t, "https://acme.myshopify.com/admin/api/2024-01/graphql.json", c.Endpoint(s.Config()))
}
