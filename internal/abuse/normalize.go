package abuse

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize returns the comparison form of content: NFKC, case folded, with
// every whitespace run collapsed to a single space and the ends trimmed.
// Two submissions are duplicates when their normalized forms are equal.
func Normalize(content string) string {
	s := norm.NFKC.String(content)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}
