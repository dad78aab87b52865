package preview

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/samber/lo"
)

// Columns 取第一行的键，id 在最前，其余按字母序
func Columns(rows []map[string]any) []Column {
	if len(rows) == 0 {
		return []Column{}
	}
	keys := lo.Keys(rows[0])
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "id" || keys[j] == "id" {
			return keys[i] == "id"
		}
		return keys[i] < keys[j]
	})
	return lo.Map(keys, func(k string, _ int) Column {
		return Column{Key: k, Label: Humanize(k)}
	})
}

// Humanize createdAt -> Created At, product_type -> Product Type, id -> ID
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0 && !unicode.IsUpper(cur[len(cur)-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	for i, w := range words {
		if strings.EqualFold(w, "id") {
			words[i] = "ID"
			continue
		}
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

type shaper struct {
	limit          int
	stuckThreshold time.Duration
}

func (s shaper) shape(snap *Snapshot, tier Tier, req Request, now time.Time) *PreviewData {
	e := snap.Execution
	out := &PreviewData{
		Status:     e.Status,
		DataSource: tier,
		Execution: ExecutionInfo{
			ID:              e.ID,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			RowCount:        e.RowCount,
			ExecutionTimeMs: e.ExecutionTimeMs,
			APICallCount:    e.APICallCount,
		},
		Dataset:       snap.Dataset,
		Columns:       []Column{},
		Preview:       []map[string]any{},
		PossiblyStuck: ShouldShowStuckUI(e, now, s.stuckThreshold),
	}
	if e.Status == execution.ExecutionStatusFailed {
		out.Error = e.ErrorMessage
	}

	if e.RowCount != nil {
		out.TotalCount = *e.RowCount
	} else if snap.WithRows {
		out.TotalCount = len(e.Data)
	}
	if !snap.WithRows || req.CheckStatus || len(e.Data) == 0 {
		return out
	}

	rows := e.Data
	if len(rows) > s.limit {
		rows = rows[:s.limit]
	}
	out.Preview = rows
	out.Columns = Columns(rows)
	return out
}
