package schema

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopifyProcessor(t *testing.T) {
	p, err := ShopifyProcessor{}.Process(fixtureSchema())
	require.NoError(t, err)

	require.Len(t, p.RootResources, 2)
	products := p.RootResources[0]
	assert.Equal(t, "products", products.Name)
	assert.Equal(t, "ProductConnection", products.Type)
	assert.Equal(t, "Product", products.NodeType)
	assert.True(t, products.IsConnection)
	assert.Equal(t, 3, products.QueryDepth)
	assert.Equal(t, []string{"first", "after"}, products.Args)
	assert.Equal(t, "Order", p.RootResources[1].NodeType)

	names := lo.Map(p.ObjectTypes, func(o ObjectType, _ int) string { return o.Name })
	assert.Equal(t, []string{
		"Customer", "InventoryItem", "Order", "PageInfo", "Product",
		"ProductVariant", "ProductVariantConnection", "ProductVariantEdge",
	}, names)

	product, ok := lo.Find(p.ObjectTypes, func(o ObjectType) bool { return o.Name == "Product" })
	require.True(t, ok)
	categories := lo.SliceToMap(product.Fields, func(f ObjectField) (string, FieldCategory) { return f.Name, f.Category })
	assert.Equal(t, CategoryScalar, categories["id"])
	assert.Equal(t, CategoryEnum, categories["status"])
	assert.Equal(t, CategoryObject, categories["variants"])
	assert.Equal(t, "ID!", product.Fields[0].Type)
}

func TestShopifyProcessorMissingQueryType(t *testing.T) {
	_, err := ShopifyProcessor{}.Process(&IntrospectionSchema{Types: []FullType{obj("Product", fld("id", idT))}})
	assert.Error(t, err)
}

func TestGraphQLProcessor(t *testing.T) {
	p, err := GraphQLProcessor{Provider: "woocommerce"}.Process(fixtureSchema())
	require.NoError(t, err)
	assert.Equal(t, "woocommerce", p.Provider)
	// shop is an object field so it counts too
	assert.Len(t, p.RootResources, 3)
	for _, o := range p.ObjectTypes {
		assert.NotEqual(t, "__Schema", o.Name)
		assert.NotEqual(t, "QueryRoot", o.Name)
	}
}

func TestRegistryFallback(t *testing.T) {
	r := NewRegistry()
	assert.IsType(t, ShopifyProcessor{}, r.For("Shopify"))
	assert.IsType(t, RESTProcessor{}, r.For("rest"))
	assert.IsType(t, GraphQLProcessor{}, r.For("magento"))

	rest, err := r.For("rest").Process(publicSchema())
	require.NoError(t, err)
	assert.Equal(t, "rest", rest.Provider)
	assert.NotEmpty(t, rest.RootResources)
}
