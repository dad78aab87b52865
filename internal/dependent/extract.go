// Package dependent 两段式查询：主查询结果取 ID，分批查询次级数据，再合并。
package dependent

import "strings"

// ExtractIDs 沿点分路径取值。遇到数组时对每个元素取下一段并展开一层。
// 只收集字符串值，按首次出现的顺序去重。
func ExtractIDs(results []map[string]any, idPath string) []string {
	segments := strings.Split(idPath, ".")
	seen := make(map[string]struct{})
	ids := make([]string, 0)

	add := func(v any) {
		s, ok := v.(string)
		if !ok || s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		ids = append(ids, s)
	}

	for _, r := range results {
		for _, v := range resolve(r, segments) {
			if list, ok := v.([]any); ok {
				for _, item := range list {
					add(item)
				}
				continue
			}
			add(v)
		}
	}
	return ids
}

func resolve(root map[string]any, segments []string) []any {
	current := []any{root}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		next := make([]any, 0, len(current))
		for _, v := range current {
			switch t := v.(type) {
			case map[string]any:
				if x, ok := t[seg]; ok && x != nil {
					next = append(next, x)
				}
			case []any:
				for _, item := range t {
					if m, ok := item.(map[string]any); ok {
						if x, ok := m[seg]; ok && x != nil {
							next = append(next, x)
						}
					}
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}
