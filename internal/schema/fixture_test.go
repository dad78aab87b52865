package schema

func named(kind, name string) TypeRef { return TypeRef{Kind: kind, Name: name} }

func nonNull(r TypeRef) TypeRef { return TypeRef{Kind: KindNonNull, OfType: &r} }

func listOf(r TypeRef) TypeRef { return TypeRef{Kind: KindList, OfType: &r} }

func obj(name string, fields ...Field) FullType {
	return FullType{Kind: KindObject, Name: name, Fields: fields}
}

func fld(name string, typ TypeRef) Field { return Field{Name: name, Type: typ} }

var (
	idT     = nonNull(named(KindScalar, "ID"))
	stringT = named(KindScalar, "String")
)

func connection(node string) []FullType {
	return []FullType{
		obj(node+"Connection",
			fld("edges", nonNull(listOf(nonNull(named(KindObject, node+"Edge"))))),
			fld("pageInfo", nonNull(named(KindObject, "PageInfo")))),
		obj(node+"Edge",
			fld("cursor", nonNull(stringT)),
			fld("node", nonNull(named(KindObject, node)))),
	}
}

// fixtureSchema 一个缩小的 Shopify Admin 模式
func fixtureSchema() *IntrospectionSchema {
	types := []FullType{
		obj("QueryRoot",
			Field{Name: "products", Type: nonNull(named(KindObject, "ProductConnection")), Args: []InputValue{{Name: "first"}, {Name: "after"}}},
			fld("orders", nonNull(named(KindObject, "OrderConnection"))),
			fld("shop", nonNull(named(KindObject, "Shop")))),
		obj("Product",
			fld("id", idT),
			Field{Name: "title", Type: stringT, Description: "The product title."},
			fld("status", nonNull(named(KindEnum, "ProductStatus"))),
			fld("variants", nonNull(named(KindObject, "ProductVariantConnection")))),
		obj("ProductVariant",
			fld("id", idT),
			fld("sku", stringT),
			fld("inventoryItem", named(KindObject, "InventoryItem"))),
		obj("InventoryItem", fld("id", idT), fld("tracked", named(KindScalar, "Boolean"))),
		obj("Order", fld("id", idT), fld("name", stringT), fld("customer", named(KindObject, "Customer"))),
		obj("Customer", fld("id", idT), fld("email", stringT), fld("password", stringT)),
		obj("Shop", fld("name", stringT), fld("storefrontAccessToken", stringT)),
		obj("PageInfo", fld("hasNextPage", nonNull(named(KindScalar, "Boolean"))), fld("endCursor", stringT)),
		obj("Unrelated", fld("id", idT)),
		{Kind: KindEnum, Name: "ProductStatus", EnumValues: []EnumValue{{Name: "ACTIVE"}, {Name: "DRAFT"}}},
		{Kind: KindScalar, Name: "ID"},
		{Kind: KindScalar, Name: "String"},
		{Kind: KindScalar, Name: "Boolean"},
		obj("__Schema", fld("types", listOf(named(KindObject, "__Type")))),
	}
	types = append(types, connection("Product")...)
	types = append(types, connection("ProductVariant")...)
	types = append(types, connection("Order")...)
	return &IntrospectionSchema{QueryType: &TypeName{Name: "QueryRoot"}, Types: types}
}

// publicSchema 没有敏感字段
func publicSchema() *IntrospectionSchema {
	types := []FullType{
		obj("QueryRoot", fld("products", nonNull(named(KindObject, "ProductConnection")))),
		obj("Product", fld("id", idT), fld("title", stringT)),
		obj("PageInfo", fld("hasNextPage", nonNull(named(KindScalar, "Boolean"))), fld("endCursor", stringT)),
	}
	types = append(types, connection("Product")...)
	return &IntrospectionSchema{QueryType: &TypeName{Name: "QueryRoot"}, Types: types}
}
