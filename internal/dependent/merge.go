package dependent

import (
	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
)

const (
	primaryKey   = "id"
	foreignKey   = "primaryId"
	nestedField  = "secondaryData"
	matchedField = "hasSecondaryData"
)

var ErrJoinKeyMissing = errors.New("merge join key missing")

// joinKey 只接受非空字符串，数字 1 和 "1" 不会互相匹配
func joinKey(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func indexSecondary(secondary []map[string]any) map[string][]map[string]any {
	idx := make(map[string][]map[string]any)
	for _, s := range secondary {
		if k, ok := joinKey(s[foreignKey]); ok {
			idx[k] = append(idx[k], s)
		}
	}
	return idx
}

// Merge 以 primary.id == secondary.primaryId 连接。
//   - nested: 每个主记录加 secondaryData 数组（可能为空）
//   - flat: 每个匹配对输出一行，次级字段覆盖主字段；hasSecondaryData 标记是否匹配
//   - reference 及未知策略: 原样返回主记录
func Merge(primary, secondary []map[string]any, strategy dataset.MergeStrategy) []map[string]any {
	switch strategy {
	case dataset.MergeNested:
		idx := indexSecondary(secondary)
		out := make([]map[string]any, 0, len(primary))
		for _, p := range primary {
			row := copyMap(p, 1)
			related := []map[string]any{}
			if k, ok := joinKey(p[primaryKey]); ok && idx[k] != nil {
				related = idx[k]
			}
			row[nestedField] = related
			out = append(out, row)
		}
		return out
	case dataset.MergeFlat:
		idx := indexSecondary(secondary)
		out := make([]map[string]any, 0, len(primary))
		for _, p := range primary {
			k, ok := joinKey(p[primaryKey])
			matches := idx[k]
			if !ok || len(matches) == 0 {
				row := copyMap(p, 1)
				row[matchedField] = false
				out = append(out, row)
				continue
			}
			for _, s := range matches {
				row := copyMap(p, len(s)+1)
				for key, v := range s {
					row[key] = v
				}
				row[matchedField] = true
				out = append(out, row)
			}
		}
		return out
	default:
		return primary
	}
}

func copyMap(m map[string]any, extra int) map[string]any {
	out := make(map[string]any, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidateJoinKeys 主记录缺 id 或次级记录缺 primaryId 时返回错误，调用方只记录告警
func ValidateJoinKeys(primary, secondary []map[string]any) error {
	var missingPrimary, missingSecondary int
	for _, p := range primary {
		if _, ok := joinKey(p[primaryKey]); !ok {
			missingPrimary++
		}
	}
	for _, s := range secondary {
		if _, ok := joinKey(s[foreignKey]); !ok {
			missingSecondary++
		}
	}
	if missingPrimary == 0 && missingSecondary == 0 {
		return nil
	}
	return errors.Wrapf(ErrJoinKeyMissing, "%d primary rows without %q, %d secondary rows without %q",
		missingPrimary, primaryKey, missingSecondary, foreignKey)
}
