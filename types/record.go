package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	KeyType   = "type"
	KeyRut    = "rut"
	KeyNombre = "nombre"
	KeyEdad   = "edad"
	KeySexo   = "sexo"
	KeyFecha  = "fecha"
	KeyHora   = "hora"
)

// RequiredKeys are present on every record, even when their value is empty.
var RequiredKeys = []string{KeyType, KeyRut, KeyNombre, KeyEdad, KeySexo}

var IdentityKeys = []string{KeyRut, KeyNombre, KeyEdad, KeySexo}

func IsRequiredKey(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

func IsIdentityKey(key string) bool {
	for _, k := range IdentityKeys {
		if k == key {
			return true
		}
	}
	return false
}

type Identity struct {
	Name string `json:"nombre"`
	ID   string `json:"rut"`
	Age  string `json:"edad"`
	Sex  string `json:"sexo"`
}

func (id Identity) IsEmpty() bool {
	return id == Identity{}
}

func (id Identity) Map() map[string]string {
	return map[string]string{
		KeyNombre: id.Name,
		KeyRut:    id.ID,
		KeyEdad:   id.Age,
		KeySexo:   id.Sex,
	}
}

// Fields holds extracted and derived values. A missing key is the only way to
// say "no value"; empty strings never live here.
type Fields map[string]string

func (fields Fields) Get(key string) (string, bool) {
	v, ok := fields[key]
	return v, ok
}

func (fields Fields) Clone() Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (fields Fields) Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type ExamRecord struct {
	Type     Family
	Identity Identity
	Fields   Fields
}

func (record ExamRecord) Date() (string, bool) {
	return record.Fields.Get(KeyFecha)
}

func (record ExamRecord) Time() (string, bool) {
	return record.Fields.Get(KeyHora)
}

func (record ExamRecord) Family() Family {
	return FamilyOf(string(record.Type))
}

// Flat renders the record as a single key space: type, identity and every field.
func (record ExamRecord) Flat() map[string]string {
	out := record.Identity.Map()
	for k, v := range record.Fields {
		out[k] = v
	}
	out[KeyType] = string(record.Type)
	return out
}

func (record ExamRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(record.Flat())
}

func (record *ExamRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("exam record: %w", err)
	}
	*record = recordFromFlat(raw)
	return nil
}

func recordFromFlat(raw map[string]string) ExamRecord {
	record := ExamRecord{
		Type: Family(raw[KeyType]),
		Identity: Identity{
			Name: raw[KeyNombre],
			ID:   raw[KeyRut],
			Age:  raw[KeyEdad],
			Sex:  raw[KeySexo],
		},
		Fields: Fields{},
	}
	for k, v := range raw {
		if IsRequiredKey(k) || v == "" {
			continue
		}
		record.Fields[k] = v
	}
	return record
}

const keyIndex = "index"

// IndexedRecord is a record placed in its family with a 1-based sequence index.
type IndexedRecord struct {
	Index  int
	Record ExamRecord
}

func (ir IndexedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(ir.Record.Fields)+6)
	for k, v := range ir.Record.Flat() {
		out[k] = v
	}
	out[keyIndex] = ir.Index
	return json.Marshal(out)
}

func (ir *IndexedRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("indexed record: %w", err)
	}
	flat := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == keyIndex {
			if err := json.Unmarshal(v, &ir.Index); err != nil {
				return fmt.Errorf("indexed record index: %w", err)
			}
			continue
		}
		var value string
		if err := json.Unmarshal(v, &value); err != nil {
			return fmt.Errorf("indexed record field %s: %w", k, err)
		}
		flat[k] = value
	}
	ir.Record = recordFromFlat(flat)
	return nil
}

type ClassifiedRecordSet struct {
	General    []IndexedRecord `json:"general"`
	Urinalysis []IndexedRecord `json:"orina"`
	Culture    []IndexedRecord `json:"cultivo"`
}

func NewClassifiedRecordSet() ClassifiedRecordSet {
	return ClassifiedRecordSet{
		General:    []IndexedRecord{},
		Urinalysis: []IndexedRecord{},
		Culture:    []IndexedRecord{},
	}
}

func (set ClassifiedRecordSet) Family(family Family) []IndexedRecord {
	switch family {
	case FamilyUrinalysis:
		return set.Urinalysis
	case FamilyCulture:
		return set.Culture
	default:
		return set.General
	}
}

func (set ClassifiedRecordSet) Len() int {
	return len(set.General) + len(set.Urinalysis) + len(set.Culture)
}
