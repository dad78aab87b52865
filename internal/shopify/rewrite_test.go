package shopify

import (
	"testing"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func connectionArgs(t *testing.T, query, field string) ast.ArgumentList {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	require.NoError(t, err)
	f := findConnectionField(doc.Operations[0].SelectionSet, doc.Fragments)
	require.NotNil(t, f)
	require.Equal(t, field, f.Name)
	return f.Arguments
}

func TestPlanPaginationInjects(t *testing.T) {
	plan, err := PlanPagination(`{ orders(query: "status:open") { edges { node { id name } } pageInfo { hasNextPage endCursor } } }`)
	require.NoError(t, err)
	assert.True(t, plan.Rewritten)
	assert.Equal(t, "first", plan.FirstVar)
	assert.Equal(t, "after", plan.AfterVar)

	args := connectionArgs(t, plan.Query, "orders")
	require.NotNil(t, args.ForName("query"))
	assert.Equal(t, ast.Variable, args.ForName("first").Value.Kind)
	assert.Equal(t, ast.Variable, args.ForName("after").Value.Kind)
	assert.Contains(t, plan.Query, "$first: Int")
	assert.Contains(t, plan.Query, "$after: String")
}

func TestPlanPaginationNestedConnection(t *testing.T) {
	query := `query Nested {
  shop {
    name
    products { edges { node { id variants { edges { node { id } } } } } pageInfo { hasNextPage endCursor } }
  }
}`
	plan, err := PlanPagination(query)
	require.NoError(t, err)
	assert.True(t, plan.Rewritten)

	args := connectionArgs(t, plan.Query, "products")
	assert.NotNil(t, args.ForName("first"))

	doc, err := parser.ParseQuery(&ast.Source{Input: plan.Query})
	require.NoError(t, err)
	assert.Len(t, doc.Operations[0].VariableDefinitions, 2)
	assert.Equal(t, "Nested", doc.Operations[0].Name)
}

func TestPlanPaginationExplicitVariablesUnchanged(t *testing.T) {
	plan, err := PlanPagination(productsQuery)
	require.NoError(t, err)
	assert.False(t, plan.Rewritten)
	assert.Equal(t, productsQuery, plan.Query)
	assert.Equal(t, "first", plan.FirstVar)
	assert.Equal(t, "after", plan.AfterVar)
}

func TestPlanPaginationDifferentlyNamedCursor(t *testing.T) {
	query := `query ($cursor: String, $size: Int) {
  customers(first: $size, after: $cursor) { edges { node { id } } pageInfo { hasNextPage endCursor } }
}`
	plan, err := PlanPagination(query)
	require.NoError(t, err)
	assert.False(t, plan.Rewritten)
	assert.Equal(t, query, plan.Query)
	assert.Equal(t, "size", plan.FirstVar)
	assert.Equal(t, "cursor", plan.AfterVar)
}

func TestPlanPaginationLiteralArgumentsKept(t *testing.T) {
	plan, err := PlanPagination(`{ products(first: 10) { edges { node { id } } pageInfo { hasNextPage endCursor } } }`)
	require.NoError(t, err)
	assert.True(t, plan.Rewritten)
	assert.Empty(t, plan.FirstVar)
	assert.Equal(t, "after", plan.AfterVar)

	args := connectionArgs(t, plan.Query, "products")
	assert.Equal(t, "10", args.ForName("first").Value.Raw)
}

func TestPlanPaginationWithoutConnection(t *testing.T) {
	plan, err := PlanPagination(`{ shop { name } }`)
	require.NoError(t, err)
	assert.False(t, plan.Rewritten)
	assert.Empty(t, plan.FirstVar)
	assert.Empty(t, plan.AfterVar)
}

func TestPlanPaginationInvalidQuery(t *testing.T) {
	_, err := PlanPagination(`{ products { edges { node { id }`)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
