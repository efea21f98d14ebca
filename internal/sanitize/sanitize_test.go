package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hebrew plain text", "טקסט תקין", "טקסט תקין"},
		{"plain english", "I support this paragraph.", "I support this paragraph."},
		{"comparison operators", "3 < 5 and 7 > 2", "3 < 5 and 7 > 2"},
		{"ampersand", "AT&T", "AT&T"},
		{"inline tags", "Hello <b>world</b>", "Hello world"},
		{"script removed", "<script>alert(1)</script>שלום", "שלום"},
		{"style removed", "<style>body{display:none}</style>text", "text"},
		{"iframe removed", "a<iframe src=\"http://evil\">x</iframe>b", "ab"},
		{"comment removed", "a<!-- hidden -->b", "ab"},
		{"event handler attribute", "<img src=x onerror=alert(1)>ok", "ok"},
		{"entities kept verbatim", "&lt;b&gt;", "&lt;b&gt;"},
		{"whitespace collapsed", "a   b\t\tc", "a b c"},
		{"trimmed", "   padded   ", "padded"},
		{"blank lines collapsed", "line1\n\n\n\nline2", "line1\n\nline2"},
		{"crlf", "line1\r\nline2", "line1\nline2"},
		{"paragraph tags become lines", "<p>a</p><p>b</p>", "a\nb"},
		{"control characters", "a\x00b\x07c", "abc"},
		{"bidi override", "abc\u202edef", "abcdef"},
		{"entirely unsafe", "<script>alert(1)</script>", ""},
		{"empty", "", ""},
		{"invalid utf8", "ok\xff", "ok"},
		{"less than between words", "a<b", "a<b"},
		{"bracketed letters", "option <A> is better than <B>", "option <A> is better than <B>"},
		{"bogus end tag", "x</ 5", "x</ 5"},
		{"unterminated comment", "a <!-- b", "a <!-- b"},
		{"unknown element", "use <placeholder> here", "use <placeholder> here"},
		{"unclosed tag with attribute", "<b onclick=x>hi", "hi"},
		{"cut off tag with attribute", "ok <img src=x", "ok"},
		{"literal tag does not hide markup", "<title><img src=x onerror=alert(1)>t", "<title>t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"טקסט תקין",
		"<<b>b>nested",
		"<scr<script>ipt>alert(1)</script>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"<p>one</p>\n\n\n<p>two</p>",
		"<div><span>deep <i>nest</i></span></div>",
		"unclosed <b",
		"<a href='https://example.com'>link</a> text",
		strings.Repeat("<", 50) + "x" + strings.Repeat(">", 50),
		"a<b",
		"option <A> is better than <B>",
		"x</ 5",
		"a <!-- b",
		"<b>x</B",
		"<title><img src=x onerror=alert(1)>t",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestSanitize_NeverContainsTags(t *testing.T) {
	inputs := []string{
		"<script>x</script>",
		"<<script>script>alert(1)<</script>/script>",
		"<svg><script>alert(1)</script></svg>",
		"<img src=x onerror=alert(1)//",
		"</ <script>alert(1)</script>",
		"<title><img src=x onerror=alert(1)>",
		"<xmp><script>alert(1)</script>",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		lower := strings.ToLower(out)
		if strings.Contains(lower, "<script") || strings.Contains(lower, "<svg") || strings.Contains(lower, "<img") {
			t.Errorf("Sanitize(%q) = %q still contains markup", in, out)
		}
	}
}
