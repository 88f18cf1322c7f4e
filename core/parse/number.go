package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches an optionally signed decimal with optional comma
// digit grouping, fraction and exponent. Grouping is only accepted in
// complete groups of three, so "1,024" is one number and "1,2" is two.
// A bare fraction such as ".5" has no integer part.
var numberPattern = regexp.MustCompile(`[-+]?(?:(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?|\.\d+)(?:[eE][-+]?\d+)?`)

// FirstNumber returns the first well-formed number in text.
//
// A sign glued to a preceding word is read as a hyphen and dropped, so
// "x-3" yields 3 while "is -3" yields -3. A first number that overflows a
// float64 is reported as no number; later numbers are not consulted.
func FirstNumber(text string) (float64, bool) {
	loc := numberPattern.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}

	literal := text[loc[0]:loc[1]]
	if isSign(literal[0]) && loc[0] > 0 && isWordByte(text[loc[0]-1]) {
		literal = literal[1:]
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(literal, ",", ""), 64)
	if err != nil || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func isSign(b byte) bool {
	return b == '-' || b == '+'
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
