package extraction

import (
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/types"
)

// Section runs every rule of the section's family against its content. Rules
// scoped section-then-document fall back to the whole document when the section
// has no usable match. Missing or uncoercible values are simply left out.
func Section(section types.Section, document string, lib *patterns.Library) types.Fields {
	fields := types.Fields{}
	for _, rule := range lib.ForFamily(section.Label) {
		value, ok := rule.Match(section.Content)
		if !ok && rule.Scope == types.ScopeSectionThenDocument {
			value, ok = rule.Match(document)
		}
		if ok && value != "" {
			fields[rule.Field] = value
		}
	}
	return fields
}

// Document reads the document scoped rules once. Identity fields repeat on every
// page so the first match wins.
func Document(document string, lib *patterns.Library) types.Fields {
	fields := types.Fields{}
	for _, rule := range lib.Document() {
		if value, ok := rule.Match(document); ok && value != "" {
			fields[rule.Field] = value
		}
	}
	return fields
}

// Identity picks the patient identity out of the document fields. Unrecoverable
// values stay empty.
func Identity(documentFields types.Fields) types.Identity {
	return types.Identity{
		Name: documentFields[types.KeyNombre],
		ID:   documentFields[types.KeyRut],
		Age:  documentFields[types.KeyEdad],
		Sex:  documentFields[types.KeySexo],
	}
}
