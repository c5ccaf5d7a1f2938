package ranges

import (
	"labflux.com/lfx/patterns"
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
)

type Status int

const (
	Unknown Status = iota
	Normal
	Low
	High
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case Low:
		return "low"
	case High:
		return "high"
	}
	return "unknown"
}

type Range struct {
	Unit string   `yaml:"unit" json:"unit"`
	Low  *float64 `yaml:"low" json:"low,omitempty"`
	High *float64 `yaml:"high" json:"high,omitempty"`
	Note string   `yaml:"note" json:"note,omitempty"`

	// Thousands marks ranges expressed in thousands; absolute counts are scaled down.
	Thousands bool `yaml:"thousands" json:"thousands,omitempty"`
}

//go:embed ranges.yaml
var defaultTable []byte

type Table map[string]Range

func Parse(b []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("parse reference ranges: %w", err)
	}
	return table, nil
}

var defaultRanges = mustParse(defaultTable)

func mustParse(b []byte) Table {
	table, err := Parse(b)
	if err != nil {
		panic(err)
	}
	return table
}

func Default() Table {
	return defaultRanges
}

// Classify places a value against the field's reference range. Fields without a
// numeric range and values that are not plain numbers are Unknown.
func (table Table) Classify(field string, value string) Status {
	r, ok := table[field]
	if !ok || (r.Low == nil && r.High == nil) {
		return Unknown
	}
	v, ok := patterns.ParseFloat(value)
	if !ok {
		return Unknown
	}
	if r.Thousands && v >= 1000 {
		v /= 1000
	}
	if r.Low != nil && v < *r.Low {
		return Low
	}
	if r.High != nil && v > *r.High {
		return High
	}
	return Normal
}

// Emphasize wraps out of range values in bold markup for the document template.
func (table Table) Emphasize(field string, value string) string {
	switch table.Classify(field, value) {
	case Low, High:
		return "<b>" + value + "</b>"
	}
	return value
}
