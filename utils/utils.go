package utils

import (
	"fmt"
	"github.com/twmb/murmur3"
	"math"
	"strings"
	"unicode"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// Fingerprint is a short stable name for a document text.
func Fingerprint(text string) string {
	return fmt.Sprintf("%016x", HashString(text))
}

// RoundHalfUp rounds .5 towards positive infinity.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) == -1
}

// CollapseSpaces trims s and squeezes every whitespace run into a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
