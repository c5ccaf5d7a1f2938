package sections

import (
	"golang.org/x/text/unicode/norm"
	"strings"
)

var blankReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\f", "\n",
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
)

// Normalize composes accents (NFC) and rewrites line breaks and exotic blanks to
// plain ones. Spans produced by Split refer to the normalized text.
func Normalize(text string) string {
	return blankReplacer.Replace(norm.NFC.String(text))
}
