package shopify

import (
	"fmt"

	"github.com/spf13/cast"
)

// DiscountApplication 订单折扣。Shopify 按 __typename 区分四种，未知类型保留原始数据。
type DiscountApplication interface {
	Kind() string
	Summary() map[string]any
}

type DiscountValue struct {
	Amount       string
	CurrencyCode string
	Percentage   float64
	IsPercentage bool
}

func (v DiscountValue) String() string {
	if v.IsPercentage {
		return fmt.Sprintf("%g%%", v.Percentage)
	}
	return v.Amount + " " + v.CurrencyCode
}

type discountBase struct {
	AllocationMethod string
	TargetSelection  string
	TargetType       string
	Value            DiscountValue
}

type DiscountCodeApplication struct {
	discountBase
	Code string
}

type AutomaticDiscountApplication struct {
	discountBase
	Title string
}

type ManualDiscountApplication struct {
	discountBase
	Title       string
	Description string
}

type ScriptDiscountApplication struct {
	discountBase
	Title string
}

type UnknownDiscountApplication struct {
	TypeName string
	Raw      map[string]any
}

func (DiscountCodeApplication) Kind() string      { return "code" }
func (AutomaticDiscountApplication) Kind() string { return "automatic" }
func (ManualDiscountApplication) Kind() string    { return "manual" }
func (ScriptDiscountApplication) Kind() string    { return "script" }
func (UnknownDiscountApplication) Kind() string   { return "unknown" }

func (b discountBase) summary(kind, label string) map[string]any {
	return map[string]any{
		"type":             kind,
		"label":            label,
		"value":            b.Value.String(),
		"allocationMethod": b.AllocationMethod,
		"targetType":       b.TargetType,
	}
}

func (d DiscountCodeApplication) Summary() map[string]any { return d.summary(d.Kind(), d.Code) }
func (d AutomaticDiscountApplication) Summary() map[string]any {
	return d.summary(d.Kind(), d.Title)
}
func (d ManualDiscountApplication) Summary() map[string]any { return d.summary(d.Kind(), d.Title) }
func (d ScriptDiscountApplication) Summary() map[string]any { return d.summary(d.Kind(), d.Title) }
func (d UnknownDiscountApplication) Summary() map[string]any {
	return map[string]any{"type": d.Kind(), "typename": d.TypeName}
}

func decodeValue(v any) DiscountValue {
	m, _ := v.(map[string]any)
	if m == nil {
		return DiscountValue{}
	}
	if p, ok := m["percentage"]; ok {
		return DiscountValue{Percentage: cast.ToFloat64(p), IsPercentage: true}
	}
	return DiscountValue{Amount: cast.ToString(m["amount"]), CurrencyCode: cast.ToString(m["currencyCode"])}
}

// DecodeDiscountApplication 按 __typename 解码一个 discountApplications node
func DecodeDiscountApplication(node map[string]any) DiscountApplication {
	base := discountBase{
		AllocationMethod: cast.ToString(node["allocationMethod"]),
		TargetSelection:  cast.ToString(node["targetSelection"]),
		TargetType:       cast.ToString(node["targetType"]),
		Value:            decodeValue(node["value"]),
	}
	typename := cast.ToString(node["__typename"])
	switch typename {
	case "DiscountCodeApplication":
		return DiscountCodeApplication{discountBase: base, Code: cast.ToString(node["code"])}
	case "AutomaticDiscountApplication":
		return AutomaticDiscountApplication{discountBase: base, Title: cast.ToString(node["title"])}
	case "ManualDiscountApplication":
		return ManualDiscountApplication{
			discountBase: base,
			Title:        cast.ToString(node["title"]),
			Description:  cast.ToString(node["description"]),
		}
	case "ScriptDiscountApplication":
		return ScriptDiscountApplication{discountBase: base, Title: cast.ToString(node["title"])}
	}
	return UnknownDiscountApplication{TypeName: typename, Raw: node}
}

// FlattenOrderDiscounts 把订单里的 discountApplications 连接替换为摘要列表
func FlattenOrderDiscounts(order map[string]any) map[string]any {
	m, ok := order["discountApplications"].(map[string]any)
	if !ok {
		return order
	}
	edges, _ := m["edges"].([]any)
	conn := &Connection{Edges: edges}
	out := make(map[string]any, len(order))
	for k, v := range order {
		out[k] = v
	}
	summaries := make([]any, 0, len(conn.Edges))
	for _, node := range conn.Nodes() {
		summaries = append(summaries, DecodeDiscountApplication(node).Summary())
	}
	out["discountApplications"] = summaries
	return out
}
