package schema

import (
	"regexp"
	"sort"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
)

const RedactedMarker = "[REDACTED]"

var sensitivePatterns = []struct {
	re    *regexp.Regexp
	level schemacache.Classification
}{
	{regexp.MustCompile(`(?i)password`), schemacache.ClassificationRestricted},
	{regexp.MustCompile(`(?i)secret`), schemacache.ClassificationRestricted},
	{regexp.MustCompile(`(?i)private`), schemacache.ClassificationRestricted},
	{regexp.MustCompile(`(?i)token`), schemacache.ClassificationConfidential},
	{regexp.MustCompile(`(?i)cred`), schemacache.ClassificationConfidential},
	{regexp.MustCompile(`(?i)key`), schemacache.ClassificationInternal},
	{regexp.MustCompile(`(?i)auth`), schemacache.ClassificationInternal},
	{regexp.MustCompile(`(?i)access`), schemacache.ClassificationInternal},
}

type SecurityReport struct {
	Classification  schemacache.Classification
	// SensitiveFields Type.field，已排序
	SensitiveFields []string
	// SensitiveTypes 类型名、类型描述或枚举值命中的类型，已排序
	SensitiveTypes  []string
}

// classifyName 返回命中的最高等级，未命中返回 public
func classifyName(name string) (schemacache.Classification, bool) {
	level := schemacache.ClassificationPublic
	hit := false
	for _, p := range sensitivePatterns {
		if p.re.MatchString(name) && p.level.Rank() > level.Rank() {
			level = p.level
			hit = true
		}
	}
	return level, hit
}

// classifyAll 多段文本取最高等级
func classifyAll(texts ...string) (schemacache.Classification, bool) {
	level := schemacache.ClassificationPublic
	hit := false
	for _, text := range texts {
		if text == "" {
			continue
		}
		if l, ok := classifyName(text); ok {
			hit = true
			if l.Rank() > level.Rank() {
				level = l
			}
		}
	}
	return level, hit
}

func (r *SecurityReport) raise(level schemacache.Classification) {
	if level.Rank() > r.Classification.Rank() {
		r.Classification = level
	}
}

// Scan 按类型名、字段名、参数名、枚举值以及它们的描述匹配敏感模式，取最高等级作为整体分类
func Scan(s *IntrospectionSchema) SecurityReport {
	report := SecurityReport{
		Classification:  schemacache.ClassificationPublic,
		SensitiveFields: []string{},
		SensitiveTypes:  []string{},
	}
	for _, t := range s.Types {
		if isIntrospectionType(t.Name) {
			continue
		}
		typeTexts := []string{t.Name, t.Description}
		for _, v := range t.EnumValues {
			typeTexts = append(typeTexts, v.Name, v.Description)
		}
		if level, hit := classifyAll(typeTexts...); hit {
			report.SensitiveTypes = append(report.SensitiveTypes, t.Name)
			report.raise(level)
		}

		for _, f := range t.Fields {
			texts := []string{f.Name, f.Description}
			for _, a := range f.Args {
				texts = append(texts, a.Name, a.Description)
			}
			if level, hit := classifyAll(texts...); hit {
				report.SensitiveFields = append(report.SensitiveFields, t.Name+"."+f.Name)
				report.raise(level)
			}
		}
		for _, f := range t.InputFields {
			if level, hit := classifyAll(f.Name, f.Description); hit {
				report.SensitiveFields = append(report.SensitiveFields, t.Name+"."+f.Name)
				report.raise(level)
			}
		}
	}
	sort.Strings(report.SensitiveFields)
	sort.Strings(report.SensitiveTypes)
	return report
}

// Redact 返回副本，敏感字段的类型和描述替换为标记
func Redact(p *Processed, sensitive []string) *Processed {
	set := make(map[string]struct{}, len(sensitive))
	for _, s := range sensitive {
		set[s] = struct{}{}
	}
	out := *p
	out.ObjectTypes = make([]ObjectType, len(p.ObjectTypes))
	for i, t := range p.ObjectTypes {
		fields := make([]ObjectField, len(t.Fields))
		for j, f := range t.Fields {
			if _, ok := set[t.Name+"."+f.Name]; ok {
				f.Type = RedactedMarker
				f.BaseType = ""
				f.Description = ""
				f.Redacted = true
			}
			fields[j] = f
		}
		t.Fields = fields
		out.ObjectTypes[i] = t
	}
	return &out
}
