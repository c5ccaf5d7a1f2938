package sections

import (
	"labflux.com/lfx/types"
	"labflux.com/lfx/utils"
	"regexp"
	"strings"
)

// anchorRe finds the reception timestamp printed at the top of every report
// block. It is the most stable marker across report revisions.
var anchorRe = regexp.MustCompile(`(?i)(?:Fecha[ \t]+(?:de[ \t]+)?)?Recepci[oó]n[ \t]*:?[ \t]*\d{1,2}[/-]\d{1,2}[/-]\d{4}`)

type familyMarker struct {
	family types.Family
	re     *regexp.Regexp
}

// markers name the family of a block by its heading. Specimen lines such as
// "Muestra: Orina completa" follow the heading, so the earliest marker wins.
var markers = []familyMarker{
	{types.FamilyUrinalysis, regexp.MustCompile(`(?i)orina[ \t]+completa|sedimento[ \t]+urinario|examen[ \t]+de[ \t]+orina`)},
	{types.FamilyCulture, regexp.MustCompile(`(?i)\p{L}*cultivo`)},
}

const sectionSeparator = "\n\n"

func Label(text string) (types.Family, bool) {
	family, first := types.FamilyGeneral, -1
	for _, m := range markers {
		loc := m.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if first < 0 || loc[0] < first {
			family, first = m.family, loc[0]
		}
	}
	return family, first >= 0
}

// Boundaries returns the start offsets of every report block: the beginning of
// each line holding a reception anchor.
func Boundaries(text string) []int {
	var starts []int
	last := -1
	for _, loc := range anchorRe.FindAllStringIndex(text, -1) {
		start := strings.LastIndexByte(text[:loc[0]], '\n') + 1
		if start == last {
			continue
		}
		starts = append(starts, start)
		last = start
	}
	return starts
}

// Spans partitions text into contiguous spans cut at every block boundary. The
// first span may precede the first anchor.
func Spans(text string) types.Spans {
	starts := Boundaries(text)
	if len(starts) == 0 || starts[0] != 0 {
		starts = append([]int{0}, starts...)
	}
	spans := make(types.Spans, 0, len(starts))
	for i, begin := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		spans = append(spans, types.Span{Begin: begin, End: end})
	}
	return spans
}

// Split partitions a normalized document into labeled sections. Spans sharing a
// label are merged in document order. The span before the first anchor is patient
// header boilerplate and is dropped unless it carries a family marker. A
// document without any anchor is read as a single general section.
func Split(text string) []types.Section {
	if utils.IsBlank(text) {
		return nil
	}
	hasAnchor := len(Boundaries(text)) > 0

	var sections []types.Section
	byLabel := map[types.Family]int{}
	for i, span := range Spans(text) {
		content := text[span.Begin:span.End]
		label, marked := Label(content)
		if i == 0 && hasAnchor && !anchorRe.MatchString(content) && !marked {
			continue
		}
		if utils.IsBlank(content) {
			continue
		}
		idx, seen := byLabel[label]
		if !seen {
			byLabel[label] = len(sections)
			sections = append(sections, types.Section{
				Label:   label,
				Content: strings.TrimSpace(content),
				Spans:   types.Spans{span},
			})
			continue
		}
		sections[idx].Content += sectionSeparator + strings.TrimSpace(content)
		sections[idx].Spans = append(sections[idx].Spans, span)
	}
	return sections
}
