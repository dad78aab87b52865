package schema

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
)

// IntrospectionQuery 标准内省查询，ofType 展开 7 层
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args { ...InputValue }
    type { ...TypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) { name description isDeprecated }
  possibleTypes { ...TypeRef }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType { kind name ofType { kind name ofType { kind name ofType { kind name
    ofType { kind name ofType { kind name ofType { kind name } } } } } } }
}`

// Fetcher 拉取原始内省结果
type Fetcher interface {
	Introspect(ctx context.Context, cfg shopify.Config) (*IntrospectionSchema, json.RawMessage, error)
}

type ShopifyFetcher struct {
	client *shopify.Client
}

func NewShopifyFetcher(client *shopify.Client) *ShopifyFetcher {
	return &ShopifyFetcher{client: client}
}

func (f *ShopifyFetcher) Introspect(ctx context.Context, cfg shopify.Config) (*IntrospectionSchema, json.RawMessage, error) {
	session, err := f.client.NewSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	data, err := session.Do(ctx, IntrospectionQuery, nil)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "introspection")
	}
	return DecodeIntrospection(data)
}

// DecodeIntrospection 从 data 解码；返回的 raw 为 __schema 的 JSON
func DecodeIntrospection(data map[string]any) (*IntrospectionSchema, json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encode introspection data")
	}
	var result Introspection
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil, errors.Wrap(err, "decode introspection data")
	}
	if len(result.Schema.Types) == 0 {
		return nil, nil, errors.New("introspection returned no types")
	}
	schemaRaw, err := json.Marshal(result.Schema)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encode schema")
	}
	return &result.Schema, schemaRaw, nil
}
