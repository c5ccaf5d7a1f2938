package types

import "strings"

type Family string

const (
	FamilyGeneral    Family = "general"
	FamilyUrinalysis Family = "orina"
	FamilyCulture    Family = "cultivo"
)

var Families = []Family{FamilyGeneral, FamilyUrinalysis, FamilyCulture}

// FamilyOf maps a record type onto its exam family. Types carrying the urinalysis
// marker win over the culture marker; everything else is general.
func FamilyOf(recordType string) Family {
	t := strings.ToLower(recordType)
	switch {
	case strings.Contains(t, string(FamilyUrinalysis)):
		return FamilyUrinalysis
	case strings.Contains(t, string(FamilyCulture)):
		return FamilyCulture
	default:
		return FamilyGeneral
	}
}
