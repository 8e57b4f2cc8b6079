package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a", "a"},
		{"A", "a"},
		{" b ", "b"},
		{"", "b"},
		{"4", "b"},
	}
	for _, tt := range tests {
		got, err := SchemaByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got.Name, tt.name)
	}

	_, err := SchemaByName("c")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestKnownSchemasAreValid(t *testing.T) {
	for _, s := range []Schema{SchemaA, SchemaB} {
		assert.NoError(t, s.Validate(), s.Name)
	}
}

func TestSchemaOrder(t *testing.T) {
	assert.Equal(t, []string{TagRefactored, TagNote, TagNext}, SchemaA.Tags())
	assert.Equal(t, []string{TagNext, TagTranslation, TagRefactored, TagAnalysis}, SchemaB.Tags())

	assert.True(t, SchemaB.Has(FieldNextJP))
	assert.False(t, SchemaB.Has(FieldNote))
	assert.True(t, SchemaA.Has(FieldNote))
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{"empty", Schema{}},
		{"empty tag", Schema{Sections: []Section{{Tag: "", Field: FieldNext}}}},
		{"duplicate tag", Schema{Sections: []Section{
			{Tag: TagNext, Field: FieldNext},
			{Tag: TagNext, Field: FieldNote},
		}}},
		{"duplicate field", Schema{Sections: []Section{
			{Tag: TagNext, Field: FieldNext},
			{Tag: TagNextJP, Field: FieldNext},
		}}},
		{"unknown field", Schema{Sections: []Section{{Tag: TagNext, Field: Field(42)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.schema.Validate())
		})
	}
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "next", FieldNext.String())
	assert.Equal(t, "nextJp", FieldNextJP.String())
	assert.Equal(t, "analysis", FieldAnalysis.String())
	assert.Equal(t, "Field(99)", Field(99).String())
	assert.Len(t, Fields(), 6)
}

func TestSnapshotGetMatchesStruct(t *testing.T) {
	s := Snapshot{Next: "n", NextJP: "j", Refactored: "r", RefactoredJP: "rj", Analysis: "a", Note: "no"}

	assert.Equal(t, "n", s.Get(FieldNext))
	assert.Equal(t, "j", s.Get(FieldNextJP))
	assert.Equal(t, "r", s.Get(FieldRefactored))
	assert.Equal(t, "rj", s.Get(FieldRefactoredJP))
	assert.Equal(t, "a", s.Get(FieldAnalysis))
	assert.Equal(t, "no", s.Get(FieldNote))
	assert.Equal(t, "", s.Get(Field(-1)))
	assert.False(t, s.IsEmpty())
	assert.True(t, Snapshot{}.IsEmpty())
}
