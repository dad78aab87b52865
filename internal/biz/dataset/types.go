package dataset

type Type string

const (
	TypePredefined Type = "predefined"
	TypeDependent  Type = "dependent"
	TypeCustom     Type = "custom"
)

// MergeStrategy 依赖查询结果的合并方式
type MergeStrategy string

const (
	MergeNested    MergeStrategy = "nested"
	MergeFlat      MergeStrategy = "flat"
	MergeReference MergeStrategy = "reference"
)

const (
	ProviderShopify     = "shopify"
	ProviderGraphQL     = "graphql"
	ProviderWooCommerce = "woocommerce"
	ProviderREST        = "rest"
)

// 数据集 parameters 中识别的键
const (
	ParamMaxItems  = "maxItems"
	ParamVariables = "variables"
)
