package merge

import (
	"labflux.com/lfx/ranges"
	"labflux.com/lfx/types"
	"sort"
	"strconv"
	"time"
)

const timestampLayout = "02/01/2006 15:04"

// Timestamp parses a record's fecha and hora as local civil time. Records
// missing either value, or carrying an unparseable one, get the zero time.
func Timestamp(record types.ExamRecord) time.Time {
	date, ok := record.Date()
	if !ok {
		return time.Time{}
	}
	clock, ok := record.Time()
	if !ok {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(timestampLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Classify partitions records into the three families, orders each family
// chronologically and numbers it from 1. Records with equal timestamps keep
// their input order.
func Classify(records []types.ExamRecord) types.ClassifiedRecordSet {
	set := types.NewClassifiedRecordSet()
	buckets := map[types.Family][]types.ExamRecord{}
	for _, record := range records {
		family := record.Family()
		buckets[family] = append(buckets[family], record)
	}

	for _, family := range types.Families {
		bucket := buckets[family]
		sort.SliceStable(bucket, func(i, j int) bool {
			return Timestamp(bucket[i]).Before(Timestamp(bucket[j]))
		})
		indexed := make([]types.IndexedRecord, 0, len(bucket))
		for i, record := range bucket {
			indexed = append(indexed, types.IndexedRecord{Index: i + 1, Record: record})
		}
		switch family {
		case types.FamilyUrinalysis:
			set.Urinalysis = indexed
		case types.FamilyCulture:
			set.Culture = indexed
		default:
			set.General = indexed
		}
	}
	return set
}

type options struct {
	emphasis ranges.Table
}

type Option func(*options)

// WithEmphasis marks values outside their reference range.
func WithEmphasis(table ranges.Table) Option {
	return func(o *options) {
		o.emphasis = table
	}
}

// Key names a field of the record at the given family index.
func Key(field string, index int) string {
	return field + "_" + strconv.Itoa(index)
}

// Keyed maps every family onto its own key namespace. A field of the n-th
// record becomes "<field>_<n>"; identity keys are kept for the first record of
// a family only.
func Keyed(set types.ClassifiedRecordSet, opts ...Option) map[types.Family]map[string]string {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	out := make(map[types.Family]map[string]string, len(types.Families))
	for _, family := range types.Families {
		keyed := map[string]string{}
		for _, ir := range set.Family(family) {
			for field, value := range ir.Record.Flat() {
				if ir.Index > 1 && types.IsIdentityKey(field) {
					continue
				}
				if o.emphasis != nil {
					value = o.emphasis.Emphasize(field, value)
				}
				keyed[Key(field, ir.Index)] = value
			}
		}
		out[family] = keyed
	}
	return out
}

// Flatten joins the family namespaces into one. General keys stay as they are,
// the other families are prefixed with their family name.
func Flatten(keyed map[types.Family]map[string]string) map[string]string {
	out := map[string]string{}
	for _, family := range types.Families {
		prefix := ""
		if family != types.FamilyGeneral {
			prefix = string(family) + "_"
		}
		for k, v := range keyed[family] {
			out[prefix+k] = v
		}
	}
	return out
}
