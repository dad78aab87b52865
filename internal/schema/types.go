package schema

import "strings"

// 内省结果，字段与 __schema 查询一一对应

type Introspection struct {
	Schema IntrospectionSchema `json:"__schema"`
}

type IntrospectionSchema struct {
	QueryType        *TypeName  `json:"queryType"`
	MutationType     *TypeName  `json:"mutationType"`
	SubscriptionType *TypeName  `json:"subscriptionType"`
	Types            []FullType `json:"types"`
}

type TypeName struct {
	Name string `json:"name"`
}

type FullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Fields        []Field      `json:"fields"`
	InputFields   []InputValue `json:"inputFields"`
	Interfaces    []TypeRef    `json:"interfaces"`
	EnumValues    []EnumValue  `json:"enumValues"`
	PossibleTypes []TypeRef    `json:"possibleTypes"`
}

type Field struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Args              []InputValue `json:"args"`
	Type              TypeRef      `json:"type"`
	IsDeprecated      bool         `json:"isDeprecated"`
	DeprecationReason string       `json:"deprecationReason,omitempty"`
}

type InputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

type EnumValue struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsDeprecated bool   `json:"isDeprecated"`
}

type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name,omitempty"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

const (
	KindScalar      = "SCALAR"
	KindObject      = "OBJECT"
	KindInterface   = "INTERFACE"
	KindUnion       = "UNION"
	KindEnum        = "ENUM"
	KindInputObject = "INPUT_OBJECT"
	KindList        = "LIST"
	KindNonNull     = "NON_NULL"
)

// Base 去掉 LIST / NON_NULL 包装
func (r TypeRef) Base() TypeRef {
	cur := r
	for cur.OfType != nil && (cur.Kind == KindList || cur.Kind == KindNonNull) {
		cur = *cur.OfType
	}
	return cur
}

func (r TypeRef) IsList() bool {
	for cur := &r; cur != nil; cur = cur.OfType {
		if cur.Kind == KindList {
			return true
		}
	}
	return false
}

// String GraphQL 写法，如 [Product!]!
func (r TypeRef) String() string {
	switch r.Kind {
	case KindNonNull:
		if r.OfType == nil {
			return "!"
		}
		return r.OfType.String() + "!"
	case KindList:
		if r.OfType == nil {
			return "[]"
		}
		return "[" + r.OfType.String() + "]"
	}
	return r.Name
}

func (s *IntrospectionSchema) TypeMap() map[string]*FullType {
	m := make(map[string]*FullType, len(s.Types))
	for i := range s.Types {
		m[s.Types[i].Name] = &s.Types[i]
	}
	return m
}

func (s *IntrospectionSchema) QueryTypeName() string {
	if s.QueryType == nil || s.QueryType.Name == "" {
		return "QueryRoot"
	}
	return s.QueryType.Name
}

func isIntrospectionType(name string) bool {
	return strings.HasPrefix(name, "__")
}

func (t *FullType) Field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// 处理后的模式，给前端构建查询使用

type Processed struct {
	Provider      string         `json:"provider"`
	RootResources []RootResource `json:"rootResources"`
	ObjectTypes   []ObjectType   `json:"objectTypes"`
	TypeCount     int            `json:"typeCount"`
}

type RootResource struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	NodeType     string   `json:"nodeType,omitempty"`
	IsConnection bool     `json:"isConnection"`
	QueryDepth   int      `json:"queryDepth"`
	Description  string   `json:"description,omitempty"`
	Args         []string `json:"args,omitempty"`
}

type FieldCategory string

const (
	CategoryScalar    FieldCategory = "Scalar"
	CategoryObject    FieldCategory = "Object"
	CategoryInterface FieldCategory = "Interface"
	CategoryEnum      FieldCategory = "Enum"
	CategoryUnion     FieldCategory = "Union"
)

type ObjectType struct {
	Name        string        `json:"name"`
	Kind        string        `json:"kind"`
	Description string        `json:"description,omitempty"`
	Fields      []ObjectField `json:"fields"`
}

type ObjectField struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	BaseType    string        `json:"baseType"`
	Category    FieldCategory `json:"category"`
	IsList      bool          `json:"isList"`
	Description string        `json:"description,omitempty"`
	Redacted    bool          `json:"redacted,omitempty"`
}

func categoryOf(kind string) FieldCategory {
	switch kind {
	case KindObject:
		return CategoryObject
	case KindInterface:
		return CategoryInterface
	case KindEnum:
		return CategoryEnum
	case KindUnion:
		return CategoryUnion
	}
	return CategoryScalar
}
