package abuse

import (
	"regexp"
	"strings"
	"unicode"
)

// Signal names reported in Result.Signals
const (
	SignalLinks     = "links"
	SignalCharFlood = "char_flood"
	SignalWordFlood = "word_flood"
	SignalTokens    = "spam_tokens"
	SignalAllCaps   = "all_caps"
)

// Signal weights. The score is the clamped sum.
const (
	linkWeight     = 0.2
	linkCap        = 0.6
	charFloodScore = 0.25
	wordFloodScore = 0.25
	tokenWeight    = 0.3
	tokenCap       = 0.6
	allCapsScore   = 0.3

	charFloodRun    = 5
	wordFloodRun    = 3
	allCapsMinAlpha = 10
	allCapsRatio    = 0.7
)

// linkPattern matches http/https URLs, www. hosts and bare domains on common
// spam TLDs followed by a path. Version strings like "v2.0" do not match.
var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf|top|click)/\S*)`)

// DefaultSpamTokens are matched case-insensitively against normalized content
var DefaultSpamTokens = []string{
	"viagra",
	"casino",
	"crypto giveaway",
	"free money",
	"click here",
	"buy now",
	"work from home",
	"bitcoin doubler",
	"loan approved",
	"הימורים",
	"קזינו",
	"הלוואה מיידית",
	"לחצו כאן",
	"כסף קל",
	"הרוויחו מהבית",
}

func countLinks(text string) int {
	return len(linkPattern.FindAllStringIndex(text, -1))
}

// hasCharFlood reports a run of charFloodRun identical runes. RE2 has no
// backreferences, so this is a linear scan.
func hasCharFlood(text string) bool {
	count := 1
	prev := rune(-1)
	for _, r := range text {
		if unicode.IsSpace(r) {
			count = 1
			prev = -1
			continue
		}
		if r == prev {
			count++
			if count >= charFloodRun {
				return true
			}
		} else {
			count = 1
			prev = r
		}
	}
	return false
}

// hasWordFlood reports the same word wordFloodRun times in a row, case-insensitively
func hasWordFlood(text string) bool {
	words := strings.Fields(text)
	if len(words) < wordFloodRun {
		return false
	}

	count := 1
	prev := ""
	for _, w := range words {
		lower := strings.ToLower(w)
		if lower == prev {
			count++
			if count >= wordFloodRun {
				return true
			}
		} else {
			count = 1
			prev = lower
		}
	}
	return false
}

// countTokens counts distinct tokens that occur in normalized
func countTokens(normalized string, tokens []string) int {
	n := 0
	for _, tok := range tokens {
		if tok != "" && strings.Contains(normalized, tok) {
			n++
		}
	}
	return n
}

// isAllCaps reports whether more than allCapsRatio of the cased letters are
// upper case. Text with fewer than allCapsMinAlpha cased letters never counts;
// Hebrew has no case and is ignored.
func isAllCaps(text string) bool {
	var upper, cased int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		switch {
		case unicode.IsUpper(r):
			upper++
			cased++
		case unicode.IsLower(r):
			cased++
		}
	}
	if cased < allCapsMinAlpha {
		return false
	}
	return float64(upper)/float64(cased) > allCapsRatio
}
