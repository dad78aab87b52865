package schema

import (
	"sort"
	"strings"
	"sync"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
)

// Processor 把原始内省结果归一化为 Processed
type Processor interface {
	Process(s *IntrospectionSchema) (*Processed, error)
}

type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
	fallback   Processor
}

// NewRegistry 注册内置的 shopify / graphql / woocommerce / rest 处理器
func NewRegistry() *Registry {
	r := &Registry{
		processors: make(map[string]Processor),
		fallback:   GraphQLProcessor{Provider: dataset.ProviderGraphQL},
	}
	r.Register(dataset.ProviderShopify, ShopifyProcessor{})
	r.Register(dataset.ProviderGraphQL, GraphQLProcessor{Provider: dataset.ProviderGraphQL})
	r.Register(dataset.ProviderWooCommerce, GraphQLProcessor{Provider: dataset.ProviderWooCommerce})
	r.Register(dataset.ProviderREST, RESTProcessor{})
	return r
}

func (r *Registry) Register(provider string, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[strings.ToLower(provider)] = p
}

// For 未注册的 provider 使用通用 GraphQL 处理器
func (r *Registry) For(provider string) Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.processors[strings.ToLower(provider)]; ok {
		return p
	}
	return r.fallback
}

func isConnectionShaped(t *FullType) bool {
	return t != nil && t.Field("edges") != nil && t.Field("pageInfo") != nil
}

// nodeTypeOf 沿 edges -> node 找节点类型
func nodeTypeOf(conn *FullType, types map[string]*FullType) string {
	edges := conn.Field("edges")
	if edges == nil {
		return ""
	}
	edge := types[edges.Type.Base().Name]
	if edge == nil {
		return ""
	}
	node := edge.Field("node")
	if node == nil {
		return ""
	}
	return node.Type.Base().Name
}

func argNames(args []InputValue) []string {
	if len(args) == 0 {
		return nil
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		names = append(names, a.Name)
	}
	return names
}

func toObjectType(t *FullType, types map[string]*FullType) ObjectType {
	fields := make([]ObjectField, 0, len(t.Fields))
	for _, f := range t.Fields {
		base := f.Type.Base()
		kind := base.Kind
		if ref := types[base.Name]; ref != nil {
			kind = ref.Kind
		}
		fields = append(fields, ObjectField{
			Name:        f.Name,
			Type:        f.Type.String(),
			BaseType:    base.Name,
			Category:    categoryOf(kind),
			IsList:      f.Type.IsList(),
			Description: f.Description,
		})
	}
	return ObjectType{Name: t.Name, Kind: t.Kind, Description: t.Description, Fields: fields}
}

func isComposite(kind string) bool {
	return kind == KindObject || kind == KindInterface
}

// closure 从 roots 出发可达的 OBJECT / INTERFACE / UNION 成员类型
func closure(roots []string, types map[string]*FullType) []string {
	seen := make(map[string]struct{})
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := seen[name]; ok {
			continue
		}
		t := types[name]
		if t == nil || isIntrospectionType(name) {
			continue
		}
		switch t.Kind {
		case KindObject, KindInterface:
			seen[name] = struct{}{}
			for _, f := range t.Fields {
				queue = append(queue, f.Type.Base().Name)
			}
			for _, p := range t.PossibleTypes {
				queue = append(queue, p.Base().Name)
			}
		case KindUnion:
			for _, p := range t.PossibleTypes {
				queue = append(queue, p.Base().Name)
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
