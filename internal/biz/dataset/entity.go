package dataset

import (
	"time"

	"github.com/spf13/cast"
)

type Dataset struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      string
	SourceID    string
	Name        string
	Description string
	Type        Type
	TemplateID  string
	// CustomQuery 仅 custom 类型使用
	CustomQuery  string
	CustomFields []string
	Parameters   map[string]any
}

// MaxItems 读取 parameters.maxItems，缺省返回 def
func (d *Dataset) MaxItems(def int) int {
	if d.Parameters == nil {
		return def
	}
	v, ok := d.Parameters[ParamMaxItems]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Variables 读取 parameters.variables
func (d *Dataset) Variables() map[string]any {
	if d.Parameters == nil {
		return map[string]any{}
	}
	vars, err := cast.ToStringMapE(d.Parameters[ParamVariables])
	if err != nil || vars == nil {
		return map[string]any{}
	}
	return vars
}

// Source 外部数据源及其凭据
type Source struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      string
	Name        string
	Provider    string
	StoreName   string
	AccessToken string
	APIVersion  string
	// SchemaCacheTTL 为 0 时使用全局配置
	SchemaCacheTTL time.Duration
}

func (s *Source) HasCredentials() bool {
	return s.StoreName != "" && s.AccessToken != ""
}

type PredefinedTemplate struct {
	ID            string
	Name          string
	Description   string
	QueryTemplate string
	// ResourceType 同时是查询中连接字段的名字
	ResourceType string
	FieldList    []string
}

type DependentTemplate struct {
	ID             string
	Name           string
	Description    string
	PrimaryQuery   string
	SecondaryQuery string
	IDPath         string
	MergeStrategy  MergeStrategy
}
