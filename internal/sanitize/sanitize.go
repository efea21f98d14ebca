// Package sanitize turns submitted free text into safe stored text. Markup is
// removed with an HTML tokenizer, the bodies of executable or embedded
// elements are dropped and whitespace is normalized. The result is plain text;
// renderers still escape it on output.
package sanitize

import (
	"errors"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxPasses bounds the fixpoint loop in Sanitize
const maxPasses = 8

// droppedElements have their whole content removed, not only their tags
var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"noscript": true,
	"noembed":  true,
	"noframes": true,
	"template": true,
	"svg":      true,
	"math":     true,
	"textarea": true,
	"select":   true,
	"head":     true,
}

// lineElements start a new line when stripped
var lineElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "hr": true,
}

// Sanitize returns the safe form of s. It is a pure function and is
// idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	out := s
	for i := 0; i < maxPasses; i++ {
		next := normalize(strip(out))
		if next == out {
			return out
		}
		out = next
	}
	// Pathological nesting; fall back to dropping every angle bracket.
	return normalize(strings.NewReplacer("<", "", ">", "").Replace(out))
}

// strip removes tags, comments, doctypes and dropped element bodies, keeping
// text tokens byte for byte so entities are not decoded into new markup.
// Angle-bracket text that is not markup, such as "a<b" or "option <A>", is
// kept as written.
func strip(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}

	closed := closedElements(s)
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	skipDepth := 0
	consumed := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// A tag cut off by the end of input is never emitted as a token.
			if rest := s[consumed:]; skipDepth == 0 && errors.Is(z.Err(), io.EOF) && literal(rest) {
				b.WriteString(rest)
			}
			return b.String()
		}
		// TagName lowercases the token buffer, so raw text comes from s
		start := consumed
		consumed += len(z.Raw())
		raw := s[start:consumed]

		switch tt {
		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(raw)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case droppedElements[tag]:
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			case skipDepth > 0:
			case !hasAttr && literal(raw) && (atom.Lookup(name) == 0 || tt == html.StartTagToken && !lineElements[tag] && !closed[tag]):
				b.WriteString(raw)
			case lineElements[tag]:
				b.WriteByte('\n')
			}
			z.NextIsNotRawText()
		case html.EndTagToken:
			name, hasAttr := z.TagName()
			switch {
			case droppedElements[string(name)]:
				if skipDepth > 0 {
					skipDepth--
				}
			case skipDepth == 0 && !hasAttr && atom.Lookup(name) == 0 && literal(raw):
				b.WriteString(raw)
			}
		case html.CommentToken:
			if skipDepth == 0 && !isComment(raw) && literal(raw) {
				b.WriteString(raw)
			}
		case html.DoctypeToken:
			// dropped
		}
	}
}

// closedElements returns the names of every end tag in s
func closedElements(s string) map[string]bool {
	closed := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return closed
		case html.EndTagToken:
			name, _ := z.TagName()
			closed[string(name)] = true
		}
	}
}

// literal reports whether raw reads as plain text: no nested '<' and no
// attribute assignment.
func literal(raw string) bool {
	return raw != "" && !strings.Contains(raw[1:], "<") && !strings.Contains(raw, "=")
}

// isComment reports a terminated <!-- --> comment, as opposed to a bogus
// comment such as "</ 5" or an unterminated "<!--".
func isComment(raw string) bool {
	if !strings.HasPrefix(raw, "<!--") {
		return false
	}
	return strings.HasSuffix(raw, "-->") || strings.HasSuffix(raw, "--!>")
}

// normalize removes control and bidi-override characters, collapses runs of
// whitespace inside a line, keeps at most one blank line between lines and
// trims the result.
func normalize(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = collapseLine(line)
		if line == "" {
			if len(out) > 0 && !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func collapseLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	pendingSpace := false
	for _, r := range line {
		if isStripped(r) {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// isStripped reports runes that never survive sanitization
func isStripped(r rune) bool {
	if r == '\t' {
		return false
	}
	if unicode.IsControl(r) {
		return true
	}
	switch {
	case r >= 0x202A && r <= 0x202E: // embeddings and overrides
		return true
	case r >= 0x2066 && r <= 0x2069: // isolates
		return true
	case r == 0xFEFF:
		return true
	}
	return false
}
