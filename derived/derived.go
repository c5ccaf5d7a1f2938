package derived

import (
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/types"
	"labflux.com/lfx/utils"
	"math"
	"strconv"
	"strings"
)

// Friedewald's estimate is not valid from this triglyceride level on.
const ldlTriglyceridesLimit = 400.0

// Leukocyte counts below this are printed in thousands per microliter.
const thousandsNotationLimit = 1000.0

type Derivation struct {
	Field    string
	Families []types.Family
	Compute  func(fields types.Fields) (string, bool)
}

func differential(percentField string) func(fields types.Fields) (string, bool) {
	return func(fields types.Fields) (string, bool) {
		return DifferentialCount(fields[percentField], fields[patterns.FieldLeukocytes])
	}
}

var general = []types.Family{types.FamilyGeneral}

var Derivations = []Derivation{
	{patterns.FieldNeutrophils, general, differential(patterns.FieldNeutrophilsPct)},
	{patterns.FieldLymphocytes, general, differential(patterns.FieldLymphocytesPct)},
	{patterns.FieldMonocytes, general, differential(patterns.FieldMonocytesPct)},
	{patterns.FieldEosinophils, general, differential(patterns.FieldEosinophilsPct)},
	{patterns.FieldBasophils, general, differential(patterns.FieldBasophilsPct)},
	{patterns.FieldBUNCreatinine, general, func(fields types.Fields) (string, bool) {
		return BUNCreatinineRatio(fields[patterns.FieldBUN], fields[patterns.FieldCreatinine])
	}},
	{patterns.FieldLDL, general, func(fields types.Fields) (string, bool) {
		return LDL(fields[patterns.FieldCholesterol], fields[patterns.FieldHDL], fields[patterns.FieldTriglycerides])
	}},
	{patterns.FieldEGFR, general, func(fields types.Fields) (string, bool) {
		return EGFR(fields[patterns.FieldCreatinine], fields[types.KeyEdad], fields[types.KeySexo])
	}},
}

// Apply computes every derivation of the family from fields, which must already
// hold identity values under their record keys. Extracted values are never
// overwritten. The returned map holds only the derived values.
func Apply(family types.Family, fields types.Fields) types.Fields {
	out := types.Fields{}
	for _, d := range Derivations {
		if !appliesTo(d, family) {
			continue
		}
		if _, extracted := fields[d.Field]; extracted {
			continue
		}
		if v, ok := d.Compute(fields); ok {
			out[d.Field] = v
		}
	}
	return out
}

func appliesTo(d Derivation, family types.Family) bool {
	for _, f := range d.Families {
		if f == family {
			return true
		}
	}
	return false
}

func format(x float64) (string, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", false
	}
	return strconv.Itoa(utils.RoundHalfUp(x)), true
}

// LeukocyteCount scales a total leukocyte value to an absolute count per
// microliter: "8,0" (thousands notation) and "8000" both give 8000.
func LeukocyteCount(raw string) (float64, bool) {
	v, ok := patterns.ParseFloat(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	if v < thousandsNotationLimit {
		v *= 1000
	}
	return v, true
}

func DifferentialCount(percent string, leukocytes string) (string, bool) {
	pct, ok := patterns.ParseFloat(percent)
	if !ok {
		return "", false
	}
	total, ok := LeukocyteCount(leukocytes)
	if !ok {
		return "", false
	}
	return format(pct / 100 * total)
}

func BUNCreatinineRatio(bun string, creatinine string) (string, bool) {
	b, ok := patterns.ParseFloat(bun)
	if !ok {
		return "", false
	}
	c, ok := patterns.ParseFloat(creatinine)
	if !ok || c <= 0 {
		return "", false
	}
	return format(b / c)
}

func LDL(totalCholesterol string, hdl string, triglycerides string) (string, bool) {
	total, ok := patterns.ParseFloat(totalCholesterol)
	if !ok {
		return "", false
	}
	h, ok := patterns.ParseFloat(hdl)
	if !ok {
		return "", false
	}
	tg, ok := patterns.ParseFloat(triglycerides)
	if !ok || tg >= ldlTriglyceridesLimit {
		return "", false
	}
	return format(total - h - tg/5)
}

type egfrParams struct {
	factor    float64
	threshold float64
	lowExp    float64
}

var egfrBySex = map[string]egfrParams{
	patterns.SexFemale: {factor: 143.704, threshold: 0.7, lowExp: -0.241},
	patterns.SexMale:   {factor: 142, threshold: 0.9, lowExp: -0.302},
}

const (
	egfrHighExp = -1.2
	egfrAgeBase = 0.9938
)

// EGFR estimates the glomerular filtration rate from serum creatinine (mg/dL),
// age in years and sex. Unknown sex or missing inputs give no value.
func EGFR(creatinine string, age string, sex string) (string, bool) {
	p, ok := egfrBySex[strings.ToUpper(strings.TrimSpace(sex))]
	if !ok {
		return "", false
	}
	crea, ok := patterns.ParseFloat(creatinine)
	if !ok || crea <= 0 {
		return "", false
	}
	years, ok := patterns.ParseFloat(age)
	if !ok {
		return "", false
	}
	exp := egfrHighExp
	if crea <= p.threshold {
		exp = p.lowExp
	}
	return format(p.factor * math.Pow(crea/p.threshold, exp) * math.Pow(egfrAgeBase, years))
}
