package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayouts(t *testing.T) {
	layouts, err := LoadLayouts()
	require.NoError(t, err)
	require.Len(t, layouts, 3)

	assert.Equal(t, 1440, layouts[KindEntity].MinLineLen)
	assert.Equal(t, 1456, layouts[KindFictitious].MinLineLen)
	assert.Equal(t, 759, layouts[KindPartnership].MinLineLen)

	for kind, l := range layouts {
		assert.Equal(t, kind, l.Kind)
		assert.NotEmpty(t, l.Version)
	}
}

func TestLayoutValidate(t *testing.T) {
	valid := Layout{
		Kind:       KindEntity,
		Version:    "test",
		MinLineLen: 100,
		Fields: []Field{
			{Name: "doc_number", Start: 0, End: 12},
			{Name: "name", Start: 12, End: 50},
		},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"missing kind", func(l *Layout) { l.Kind = "" }},
		{"missing version", func(l *Layout) { l.Version = "" }},
		{"zero width", func(l *Layout) { l.MinLineLen = 0 }},
		{"field past width", func(l *Layout) { l.Fields[1].End = 101 }},
		{"inverted offsets", func(l *Layout) { l.Fields[0].End = 0 }},
		{"duplicate field", func(l *Layout) { l.Fields[1].Name = "doc_number" }},
		{"missing doc_number", func(l *Layout) { l.Fields[0].Name = "other" }},
		{"missing name", func(l *Layout) { l.Fields[1].Name = "other" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			l.Fields = append([]Field(nil), valid.Fields...)
			tt.mutate(&l)
			assert.Error(t, l.Validate())
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"entity", "entities", "cor"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, KindEntity, k)
	}
	k, err := ParseKind("fictitious")
	require.NoError(t, err)
	assert.Equal(t, KindFictitious, k)

	k, err = ParseKind("gp")
	require.NoError(t, err)
	assert.Equal(t, KindPartnership, k)

	_, err = ParseKind("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown record kind")
}
