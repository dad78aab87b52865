package dependent

import (
	"testing"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	primaryRows = []map[string]any{
		{"id": "p1", "title": "Shirt"},
		{"id": "p2", "title": "Hat"},
		{"id": "p3", "title": "Socks"},
	}
	secondaryRows = []map[string]any{
		{"primaryId": "p1", "sku": "S-1"},
		{"primaryId": "p1", "sku": "S-2"},
		{"primaryId": "p2", "sku": "H-1"},
	}
)

func TestMergeNestedKeepsLength(t *testing.T) {
	out := Merge(primaryRows, secondaryRows, dataset.MergeNested)
	require.Len(t, out, len(primaryRows))

	assert.Len(t, out[0]["secondaryData"], 2)
	assert.Len(t, out[1]["secondaryData"], 1)
	assert.NotNil(t, out[2]["secondaryData"])
	assert.Len(t, out[2]["secondaryData"], 0)
	// primary rows are not mutated
	_, mutated := primaryRows[0]["secondaryData"]
	assert.False(t, mutated)
}

func TestMergeFlatExpandsRows(t *testing.T) {
	out := Merge(primaryRows, secondaryRows, dataset.MergeFlat)
	require.Len(t, out, 4)

	assert.Equal(t, "S-1", out[0]["sku"])
	assert.Equal(t, "Shirt", out[0]["title"])
	assert.Equal(t, true, out[0]["hasSecondaryData"])
	assert.Equal(t, "S-2", out[1]["sku"])
	assert.Equal(t, "H-1", out[2]["sku"])
	assert.Equal(t, false, out[3]["hasSecondaryData"])
	assert.Equal(t, "p3", out[3]["id"])
}

func TestMergeFlatOneToOne(t *testing.T) {
	var primary, secondary []map[string]any
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		primary = append(primary, map[string]any{"id": id})
		secondary = append(secondary, map[string]any{"primaryId": id, "qty": 1})
	}
	out := Merge(primary, secondary, dataset.MergeFlat)
	assert.Len(t, out, 10)
	for _, row := range out {
		assert.Equal(t, true, row["hasSecondaryData"])
	}
}

func TestMergeReferenceAndUnknownReturnPrimary(t *testing.T) {
	assert.Equal(t, primaryRows, Merge(primaryRows, secondaryRows, dataset.MergeReference))
	assert.Equal(t, primaryRows, Merge(primaryRows, secondaryRows, dataset.MergeStrategy("zipper")))
}

func TestMergeMatchesOnlyStringKeys(t *testing.T) {
	primary := []map[string]any{{"id": "1"}, {"id": 2}}
	secondary := []map[string]any{{"primaryId": 1, "sku": "num"}, {"primaryId": "1", "sku": "str"}, {"primaryId": "2", "sku": "two"}}

	out := Merge(primary, secondary, dataset.MergeNested)
	require.Len(t, out, 2)
	related := out[0]["secondaryData"].([]map[string]any)
	require.Len(t, related, 1)
	assert.Equal(t, "str", related[0]["sku"])
	assert.Empty(t, out[1]["secondaryData"])

	err := ValidateJoinKeys(primary, secondary)
	assert.ErrorIs(t, err, ErrJoinKeyMissing)
	assert.Contains(t, err.Error(), "1 primary rows")
	assert.Contains(t, err.Error(), "1 secondary rows")
}

func TestValidateJoinKeys(t *testing.T) {
	assert.NoError(t, ValidateJoinKeys(primaryRows, secondaryRows))

	err := ValidateJoinKeys([]map[string]any{{"title": "no id"}}, []map[string]any{{"sku": "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJoinKeyMissing)
}
