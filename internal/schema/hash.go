package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash 只覆盖类型名、kind、字段名和字段类型；描述变化不影响哈希
func Hash(s *IntrospectionSchema) string {
	lines := make([]string, 0, len(s.Types))
	for _, t := range s.Types {
		fields := make([]string, 0, len(t.Fields)+len(t.InputFields))
		for _, f := range t.Fields {
			fields = append(fields, f.Name+":"+f.Type.String())
		}
		for _, f := range t.InputFields {
			fields = append(fields, f.Name+":"+f.Type.String())
		}
		sort.Strings(fields)
		lines = append(lines, t.Name+"|"+t.Kind+"|"+strings.Join(fields, ","))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
