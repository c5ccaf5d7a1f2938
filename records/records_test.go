package records

import (
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestClean(t *testing.T) {
	raw := map[string]string{
		types.KeyType:   "general",
		types.KeyNombre: "ANA PEREZ",
		"glucosa":       "95",
		"ldl":           "",
		"hdl":           "  ",
	}
	expected := map[string]string{
		types.KeyType:   "general",
		types.KeyNombre: "ANA PEREZ",
		types.KeyRut:    "",
		types.KeyEdad:   "",
		types.KeySexo:   "",
		"glucosa":       "95",
	}
	if diff := cmp.Diff(expected, Clean(raw)); diff != "" {
		t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, Clean(nil), len(types.RequiredKeys))
}

func TestAssemble(t *testing.T) {
	section := types.Section{Label: types.FamilyGeneral}
	documentFields := types.Fields{
		types.KeyNombre: "ANA PEREZ",
		types.KeyEdad:   "50",
		types.KeySexo:   patterns.SexFemale,
	}
	sectionFields := types.Fields{
		patterns.FieldDate:       "03/02/2025",
		patterns.FieldCreatinine: "0.7",
		patterns.FieldBUN:        "14",
	}
	expected := types.ExamRecord{
		Type: types.FamilyGeneral,
		Identity: types.Identity{
			Name: "ANA PEREZ",
			Age:  "50",
			Sex:  patterns.SexFemale,
		},
		Fields: types.Fields{
			patterns.FieldDate:          "03/02/2025",
			patterns.FieldCreatinine:    "0.7",
			patterns.FieldBUN:           "14",
			patterns.FieldBUNCreatinine: "20",
			patterns.FieldEGFR:          "105",
		},
	}
	if diff := cmp.Diff(expected, Assemble(section, documentFields, sectionFields)); diff != "" {
		t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleWithoutIdentity(t *testing.T) {
	section := types.Section{Label: types.FamilyUrinalysis}
	record := Assemble(section, types.Fields{}, types.Fields{patterns.FieldUrinePH: "6.0"})
	assert.Equal(t, types.FamilyUrinalysis, record.Type)
	assert.True(t, record.Identity.IsEmpty())
	assert.Equal(t, types.Fields{patterns.FieldUrinePH: "6.0"}, record.Fields)
}
