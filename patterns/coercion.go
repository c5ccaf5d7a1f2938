package patterns

import (
	"labflux.com/lfx/types"
	"labflux.com/lfx/utils"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Coercion turns the raw captured text into its normalized value. A false result
// means the value is unusable and the field is treated as absent.
type Coercion func(raw string) (string, bool)

var (
	numberRe     = regexp.MustCompile(`^([<>]=?)?\s*(\d+(?:[.,]\d+)?)$`)
	dateRe       = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	timeRe       = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	percentTrail = regexp.MustCompile(`\s*%$`)
)

func Identity(raw string) (string, bool) {
	v := utils.CollapseSpaces(raw)
	return v, v != ""
}

// Numeric accepts "," or "." as decimal separator and an optional comparator,
// returning a dot decimal such as "7.5" or "<0.5".
func Numeric(raw string) (string, bool) {
	m := numberRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	number := strings.Replace(m[2], ",", ".", 1)
	if _, err := strconv.ParseFloat(number, 64); err != nil {
		return "", false
	}
	return m[1] + number, true
}

func Percent(raw string) (string, bool) {
	return Numeric(percentTrail.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// Date accepts dd/mm/yyyy or dd-mm-yyyy with one or two digit day and month and
// returns the zero padded dd/mm/yyyy form. Impossible calendar dates are rejected.
func Date(raw string) (string, bool) {
	m := dateRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

func Time(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	m := timeRe.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", false
	}
	return v, true
}

const (
	SexFemale = "FEMENINO"
	SexMale   = "MASCULINO"
)

func Sex(raw string) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case v == "F" || strings.HasPrefix(v, "FEM"):
		return SexFemale, true
	case v == "M" || strings.HasPrefix(v, "MASC"):
		return SexMale, true
	}
	return "", false
}

var rutRe = regexp.MustCompile(`^(\d{1,2}\.?\d{3}\.?\d{3})\s*-\s*([\dkK])$`)

// RUT keeps the printed digits and dots, dropping blanks around the check digit.
func RUT(raw string) (string, bool) {
	m := rutRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	return m[1] + "-" + strings.ToUpper(m[2]), true
}

// ParseFloat reads a locale numeric value without comparator, e.g. "7,5" or "62%".
func ParseFloat(raw string) (float64, bool) {
	v, ok := Percent(raw)
	if !ok || strings.ContainsAny(v, "<>") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func CoercionByName(name string) (Coercion, error) {
	switch name {
	case "", types.CoercionIdentity:
		return Identity, nil
	case types.CoercionNumeric:
		return Numeric, nil
	case types.CoercionPercent:
		return Percent, nil
	case types.CoercionDate:
		return Date, nil
	case types.CoercionTime:
		return Time, nil
	case types.CoercionSex:
		return Sex, nil
	case types.CoercionRUT:
		return RUT, nil
	}
	return nil, fmt.Errorf("unknown coercion %q", name)
}
