package schema

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
)

// GraphQLProcessor 通用 GraphQL：查询类型上所有返回对象的字段都是根资源
type GraphQLProcessor struct {
	Provider string
}

func (p GraphQLProcessor) Process(s *IntrospectionSchema) (*Processed, error) {
	types := s.TypeMap()
	query := types[s.QueryTypeName()]
	if query == nil {
		query = types["Query"]
	}
	if query == nil {
		return nil, errors.Newf("query type %q not found", s.QueryTypeName())
	}

	resources := make([]RootResource, 0, len(query.Fields))
	for _, f := range query.Fields {
		base := f.Type.Base()
		t := types[base.Name]
		if t == nil || !isComposite(t.Kind) {
			continue
		}
		r := RootResource{
			Name:        f.Name,
			Type:        base.Name,
			QueryDepth:  2,
			Description: f.Description,
			Args:        argNames(f.Args),
		}
		if isConnectionShaped(t) {
			r.IsConnection = true
			r.NodeType = nodeTypeOf(t, types)
		} else if f.Type.IsList() {
			r.NodeType = base.Name
		}
		resources = append(resources, r)
	}

	objects := make([]ObjectType, 0)
	for i := range s.Types {
		t := &s.Types[i]
		if isIntrospectionType(t.Name) || !isComposite(t.Kind) || t.Name == query.Name {
			continue
		}
		objects = append(objects, toObjectType(t, types))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })

	provider := p.Provider
	if provider == "" {
		provider = dataset.ProviderGraphQL
	}
	return &Processed{Provider: provider, RootResources: resources, ObjectTypes: objects, TypeCount: len(s.Types)}, nil
}

// RESTProcessor REST 源没有查询类型，每个对象类型视为一个资源
type RESTProcessor struct{}

func (RESTProcessor) Process(s *IntrospectionSchema) (*Processed, error) {
	types := s.TypeMap()
	resources := make([]RootResource, 0)
	objects := make([]ObjectType, 0)
	for i := range s.Types {
		t := &s.Types[i]
		if isIntrospectionType(t.Name) || t.Kind != KindObject || t.Name == s.QueryTypeName() {
			continue
		}
		resources = append(resources, RootResource{Name: t.Name, Type: t.Name, NodeType: t.Name, QueryDepth: 1, Description: t.Description})
		objects = append(objects, toObjectType(t, types))
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return &Processed{Provider: dataset.ProviderREST, RootResources: resources, ObjectTypes: objects, TypeCount: len(s.Types)}, nil
}
