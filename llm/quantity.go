package llm

import (
	"regexp"
	"strconv"
	"strings"
)

// vnNumberWords maps Vietnamese number words (with common unaccented
// spellings) to values.
var vnNumberWords = map[string]int{
	"một": 1, "mot": 1, "hai": 2, "ba": 3, "bốn": 4, "bon": 4, "tư": 4,
	"năm": 5, "nam": 5, "sáu": 6, "sau": 6, "bảy": 7, "bay": 7,
	"tám": 8, "tam": 8, "chín": 9, "chin": 9, "mười": 10, "muoi": 10,
}

var (
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	digitsRe  = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// ParseQuantity extracts a quantity from a raw extraction value, which may be
// a JSON number, a quoted digit string or a Vietnamese number word. Defaults
// to 1 when nothing parses.
func ParseQuantity(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "null" {
		return 1
	}
	s = nonWordRe.ReplaceAllString(s, " ")

	for _, word := range strings.Fields(s) {
		if val, ok := vnNumberWords[word]; ok {
			return val
		}
	}
	if m := digitsRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
