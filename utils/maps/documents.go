package maps

import (
	"labflux.com/lfx/utils"
	"encoding/json"
	"fmt"
	"reflect"
)

// PartialDocument is a JSON document of which only some keys are modeled. Keys
// written by other services are kept as read and survive a save.
type PartialDocument interface {
	getRaw() map[string]json.RawMessage
	setRaw(map[string]json.RawMessage)
}

type BaseDocument struct {
	rawMap map[string]json.RawMessage
}

func (doc *BaseDocument) getRaw() map[string]json.RawMessage {
	return doc.rawMap
}

func (doc *BaseDocument) setRaw(raw map[string]json.RawMessage) {
	doc.rawMap = raw
}

// Decode fills the modeled fields of doc and remembers every key of b.
func Decode(b []byte, doc PartialDocument) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode partial document: %w", err)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return fmt.Errorf("decode partial document fields: %w", err)
	}
	doc.setRaw(raw)
	return nil
}

// Encode writes the modeled fields over the remembered keys. Nested objects are
// merged key by key, so sibling keys written by other services are kept.
func Encode(doc PartialDocument) ([]byte, error) {
	typed, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode partial document: %w", err)
	}
	base, err := json.Marshal(doc.getRaw())
	if err != nil {
		return nil, fmt.Errorf("encode partial document: %w", err)
	}
	return overlay(base, typed)
}

// overlay merges top into base when both are objects; otherwise top wins.
func overlay(base json.RawMessage, top json.RawMessage) (json.RawMessage, error) {
	var baseMap, topMap map[string]json.RawMessage
	if json.Unmarshal(base, &baseMap) != nil || baseMap == nil {
		return top, nil
	}
	if json.Unmarshal(top, &topMap) != nil || topMap == nil {
		return top, nil
	}
	for k, v := range topMap {
		merged, err := overlay(baseMap[k], v)
		if err != nil {
			return nil, err
		}
		baseMap[k] = merged
	}
	return json.Marshal(baseMap)
}

// ApplyUpdates calls updateFunc, a func taking doc's concrete type, and turns a
// panic inside it into an error.
func ApplyUpdates(doc PartialDocument, updateFunc interface{}) (err error) {
	if updateFunc == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)
	funcValue := reflect.ValueOf(updateFunc)
	docValue := reflect.ValueOf(doc)
	funcValue.Call([]reflect.Value{docValue})
	return nil
}
