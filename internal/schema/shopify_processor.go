package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
)

const shopifyQueryDepth = 3

// ShopifyProcessor 只保留返回 *Connection 的根字段，以及从其节点类型可达的对象类型
type ShopifyProcessor struct{}

func (ShopifyProcessor) Process(s *IntrospectionSchema) (*Processed, error) {
	types := s.TypeMap()
	query := types[s.QueryTypeName()]
	if query == nil {
		return nil, errors.Newf("query type %q not found", s.QueryTypeName())
	}

	connections := make(map[string]*FullType)
	for name, t := range types {
		if strings.HasSuffix(name, "Connection") && isConnectionShaped(t) {
			connections[name] = t
		}
	}

	resources := make([]RootResource, 0)
	roots := make([]string, 0)
	for _, f := range query.Fields {
		base := f.Type.Base()
		conn, ok := connections[base.Name]
		if !ok {
			continue
		}
		node := nodeTypeOf(conn, types)
		resources = append(resources, RootResource{
			Name:         f.Name,
			Type:         base.Name,
			NodeType:     node,
			IsConnection: true,
			QueryDepth:   shopifyQueryDepth,
			Description:  f.Description,
			Args:         argNames(f.Args),
		})
		if node != "" {
			roots = append(roots, node)
		}
	}

	reachable := closure(roots, types)
	objects := make([]ObjectType, 0, len(reachable))
	for _, name := range reachable {
		objects = append(objects, toObjectType(types[name], types))
	}

	return &Processed{
		Provider:      dataset.ProviderShopify,
		RootResources: resources,
		ObjectTypes:   objects,
		TypeCount:     len(s.Types),
	}, nil
}
