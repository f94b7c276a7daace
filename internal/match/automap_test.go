package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/sheetsync/internal/types"
)

var staffFields = []types.TargetField{
	{ID: "name", Name: "姓名"},
	{ID: "age", Name: "年龄"},
	{ID: "department", Name: "部门"},
}

func TestBest(t *testing.T) {
	tests := []struct {
		name      string
		column    string
		fields    []types.TargetField
		wantID    string
		wantTier  Tier
		wantMatch bool
	}{
		{
			name:      "Duplicate names keep the first field",
			column:    "Name",
			fields:    []types.TargetField{{ID: "f1", Name: "Name"}, {ID: "f2", Name: "Name"}},
			wantID:    "f1",
			wantTier:  TierExact,
			wantMatch: true,
		},
		{
			name:      "Later exact match beats earlier contains",
			column:    "Name",
			fields:    []types.TargetField{{ID: "f1", Name: "Nam"}, {ID: "f2", Name: "Name"}},
			wantID:    "f2",
			wantTier:  TierExact,
			wantMatch: true,
		},
		{
			name:      "Later contains does not beat earlier exact",
			column:    "Name",
			fields:    []types.TargetField{{ID: "f1", Name: "Name"}, {ID: "f2", Name: "Full Name"}},
			wantID:    "f1",
			wantTier:  TierExact,
			wantMatch: true,
		},
		{
			name:      "Fuzzy score above prefix score wins",
			column:    "Phone",
			fields:    []types.TargetField{{ID: "pager", Name: "Pager"}, {ID: "phone", Name: "phone"}},
			wantID:    "phone",
			wantTier:  TierFuzzy,
			wantMatch: true,
		},
		{
			name:      "Field id is not matched",
			column:    "age",
			fields:    []types.TargetField{{ID: "age", Name: "年龄"}},
			wantMatch: false,
		},
		{
			name:      "No fields",
			column:    "姓名",
			fields:    nil,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Best(tt.column, tt.fields)
			assert.Equal(t, tt.column, got.Column)
			assert.Equal(t, tt.wantMatch, got.Matched)
			if !tt.wantMatch {
				assert.Equal(t, TierNone, got.Tier)
				assert.Zero(t, got.Score)
				return
			}
			assert.Equal(t, tt.wantID, got.Field.ID)
			assert.Equal(t, tt.wantTier, got.Tier)
		})
	}
}

func TestAutoMap(t *testing.T) {
	columns := types.ColumnSet{"姓名", "年龄", "部门", "备注"}

	m := AutoMap(columns, staffFields)

	require.Len(t, m, 3)
	assert.Equal(t, types.Mapping{
		{Column: "姓名", FieldID: "name"},
		{Column: "年龄", FieldID: "age"},
		{Column: "部门", FieldID: "department"},
	}, m)

	_, ok := m.Get("备注")
	assert.False(t, ok, "column without an accepted field must stay unmapped")
}

func TestAutoMap_EmptyFieldList(t *testing.T) {
	columns := types.ColumnSet{"姓名", "年龄"}

	assert.Empty(t, AutoMap(columns, nil))

	for _, s := range Suggest(columns, nil) {
		assert.False(t, s.Matched, s.Column)
	}
}

func TestSuggest_Order(t *testing.T) {
	columns := types.ColumnSet{"部门", "备注", "姓名"}

	got := Suggest(columns, staffFields)

	require.Len(t, got, 3)
	for i, col := range columns {
		assert.Equal(t, col, got[i].Column)
	}
	assert.True(t, got[0].Matched)
	assert.False(t, got[1].Matched)
	assert.True(t, got[2].Matched)
}

func TestAutoMap_Determinism(t *testing.T) {
	columns := types.ColumnSet{"Name", "Full Name", "Dept", "Phone"}
	fields := []types.TargetField{
		{ID: "a", Name: "Name"},
		{ID: "b", Name: "Department"},
		{ID: "c", Name: "Name"},
		{ID: "d", Name: "phone"},
	}

	first := AutoMap(columns, fields)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AutoMap(columns, fields), "run %d", i)
	}
}
