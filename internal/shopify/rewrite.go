package shopify

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

const (
	firstVar = "first"
	afterVar = "after"
)

// PaginationPlan 分页时实际发送的查询和变量名。变量名为空表示不发送该变量。
type PaginationPlan struct {
	Query     string
	FirstVar  string
	AfterVar  string
	Rewritten bool
}

// PlanPagination 解析查询，找到第一个选择了 edges 的字段。
//
// 操作已声明 $first / $after 时原样返回。连接字段用别的变量名
// (例如 after: $cursor) 时沿用该变量名；参数是字面量时不改动；
// 缺少的参数补上 $first: Int / $after: String。
func PlanPagination(query string) (*PaginationPlan, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid GraphQL query", err)
	}
	if len(doc.Operations) == 0 {
		return nil, apperr.Validation("GraphQL document has no operation")
	}
	op := doc.Operations[0]

	plan := &PaginationPlan{Query: query}
	declaredFirst := op.VariableDefinitions.ForName(firstVar) != nil
	declaredAfter := op.VariableDefinitions.ForName(afterVar) != nil
	if declaredFirst || declaredAfter {
		if declaredFirst {
			plan.FirstVar = firstVar
		}
		if declaredAfter {
			plan.AfterVar = afterVar
		}
		return plan, nil
	}

	field := findConnectionField(op.SelectionSet, doc.Fragments)
	if field == nil {
		return plan, nil
	}

	var injected bool
	plan.FirstVar, injected = bindArgument(op, field, firstVar, "Int")
	plan.Rewritten = injected
	plan.AfterVar, injected = bindArgument(op, field, afterVar, "String")
	plan.Rewritten = plan.Rewritten || injected

	if !plan.Rewritten {
		return plan, nil
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	if buf.Len() == 0 {
		return nil, errors.New("failed to print rewritten query")
	}
	plan.Query = buf.String()
	return plan, nil
}

// bindArgument 返回该参数使用的变量名，以及是否新注入
func bindArgument(op *ast.OperationDefinition, field *ast.Field, name, typ string) (string, bool) {
	if arg := field.Arguments.ForName(name); arg != nil {
		if arg.Value != nil && arg.Value.Kind == ast.Variable {
			return arg.Value.Raw, false
		}
		return "", false
	}
	op.VariableDefinitions = append(op.VariableDefinitions, &ast.VariableDefinition{
		Variable: name,
		Type:     ast.NamedType(typ, nil),
	})
	field.Arguments = append(field.Arguments, &ast.Argument{
		Name:  name,
		Value: &ast.Value{Kind: ast.Variable, Raw: name},
	})
	return name, true
}

func findConnectionField(set ast.SelectionSet, fragments ast.FragmentDefinitionList) *ast.Field {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if selectsEdges(s.SelectionSet, fragments) {
				return s
			}
			if f := findConnectionField(s.SelectionSet, fragments); f != nil {
				return f
			}
		case *ast.InlineFragment:
			if f := findConnectionField(s.SelectionSet, fragments); f != nil {
				return f
			}
		case *ast.FragmentSpread:
			if def := fragments.ForName(s.Name); def != nil {
				if f := findConnectionField(def.SelectionSet, fragments); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

func selectsEdges(set ast.SelectionSet, fragments ast.FragmentDefinitionList) bool {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name == "edges" {
				return true
			}
		case *ast.InlineFragment:
			if selectsEdges(s.SelectionSet, fragments) {
				return true
			}
		case *ast.FragmentSpread:
			if def := fragments.ForName(s.Name); def != nil && selectsEdges(def.SelectionSet, fragments) {
				return true
			}
		}
	}
	return false
}
