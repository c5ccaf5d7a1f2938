package records

import (
	"labflux.com/lfx/derived"
	"labflux.com/lfx/types"
	"strings"
)

// Clean keeps the required keys, present even when empty, and drops every other
// key whose value is blank.
func Clean(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw)+len(types.RequiredKeys))
	for _, key := range types.RequiredKeys {
		out[key] = raw[key]
	}
	for key, value := range raw {
		if types.IsRequiredKey(key) {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// Assemble builds one record for a section from the document identity, the
// section's extracted fields and the values derived from both. Document level
// fields other than identity are copied onto the record.
func Assemble(section types.Section, documentFields types.Fields, sectionFields types.Fields) types.ExamRecord {
	raw := map[string]string{}
	for k, v := range documentFields {
		raw[k] = v
	}
	for k, v := range sectionFields {
		raw[k] = v
	}
	for k, v := range derived.Apply(section.Label, raw) {
		raw[k] = v
	}
	raw[types.KeyType] = string(section.Label)

	cleaned := Clean(raw)
	record := types.ExamRecord{
		Type: types.Family(cleaned[types.KeyType]),
		Identity: types.Identity{
			Name: cleaned[types.KeyNombre],
			ID:   cleaned[types.KeyRut],
			Age:  cleaned[types.KeyEdad],
			Sex:  cleaned[types.KeySexo],
		},
		Fields: types.Fields{},
	}
	for k, v := range cleaned {
		if types.IsRequiredKey(k) {
			continue
		}
		record.Fields[k] = v
	}
	return record
}
