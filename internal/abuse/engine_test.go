package abuse

import (
	"strings"
	"testing"
	"time"
)

func testEngine() *Engine {
	return NewEngine(Options{SpamThreshold: 0.7, DuplicateLookback: 24 * time.Hour})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"טקסט תקין", "טקסט תקין"},
		{"  Hello\t\tWORLD \n", "hello world"},
		{"Ｈｅｌｌｏ world", "hello world"},
		{"Straße", "strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEngine_Score(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name        string
		content     string
		wantScore   float64
		wantSignals []string
	}{
		{"clean hebrew", "טקסט תקין", 0, nil},
		{"clean english", "I think paragraph 3 should define the term more narrowly.", 0, nil},
		{"version strings are not links", "Compare v2.0 with 3.14 please", 0, nil},
		{"one link", "see https://example.com for details", 0.2, []string{SignalLinks}},
		{"links are capped", "http://a.io http://b.io http://c.io http://d.io http://e.io", 0.6, []string{SignalLinks}},
		{"char flood", "יופיייייי של סעיף", 0.25, []string{SignalCharFlood}},
		{"word flood", "very very very good", 0.25, []string{SignalWordFlood}},
		{"spam token", "כסף קל לכולם", 0.3, []string{SignalTokens}},
		{"all caps", "THIS IS A TERRIBLE LAW", 0.3, []string{SignalAllCaps}},
		{"short caps ignored", "NO WAY", 0, nil},
		{"links and token", "buy now at https://a.com and https://b.com", 0.7, []string{SignalLinks, SignalTokens}},
		{"clamped to one", "FREE MONEY CLICK HERE NOW!!!!!", 1, []string{SignalCharFlood, SignalTokens, SignalAllCaps}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, signals := engine.Score(tt.content)
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if strings.Join(signals, ",") != strings.Join(tt.wantSignals, ",") {
				t.Errorf("signals = %v, want %v", signals, tt.wantSignals)
			}
		})
	}
}

func TestEngine_SpamThreshold(t *testing.T) {
	engine := testEngine()
	at := time.Now()

	res := engine.Evaluate(Input{Identity: "a", ParagraphID: 1, Content: "buy now at https://a.com and https://b.com", At: at}, nil)
	if !res.IsSpam {
		t.Errorf("Score %v at the threshold should be spam", res.SpamScore)
	}

	res = engine.Evaluate(Input{Identity: "a", ParagraphID: 1, Content: "see https://example.com for details", At: at}, nil)
	if res.IsSpam {
		t.Errorf("Score %v below the threshold should not be spam", res.SpamScore)
	}
}

func TestEngine_ExtraTokens(t *testing.T) {
	engine := NewEngine(Options{SpamThreshold: 0.7, ExtraTokens: []string{"  SpamWord ", ""}})
	score, signals := engine.Score("this has spamword inside")
	if score != 0.3 || len(signals) != 1 || signals[0] != SignalTokens {
		t.Errorf("Extra token not applied: %v %v", score, signals)
	}
}

func TestEngine_Duplicate(t *testing.T) {
	engine := testEngine()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := Input{Identity: "10.0.0.1", ParagraphID: 3, Content: "טקסט תקין", At: at}

	tests := []struct {
		name    string
		history []Prior
		want    bool
	}{
		{"no history", nil, false},
		{
			name:    "same content within lookback",
			history: []Prior{{Identity: "10.0.0.1", ParagraphID: 3, Content: "  טקסט   תקין ", At: at.Add(-time.Hour)}},
			want:    true,
		},
		{
			name:    "outside lookback",
			history: []Prior{{Identity: "10.0.0.1", ParagraphID: 3, Content: "טקסט תקין", At: at.Add(-25 * time.Hour)}},
			want:    false,
		},
		{
			name:    "other paragraph",
			history: []Prior{{Identity: "10.0.0.1", ParagraphID: 2, Content: "טקסט תקין", At: at.Add(-time.Hour)}},
			want:    false,
		},
		{
			name:    "other identity",
			history: []Prior{{Identity: "10.0.0.2", ParagraphID: 3, Content: "טקסט תקין", At: at.Add(-time.Hour)}},
			want:    false,
		},
		{
			name:    "different content",
			history: []Prior{{Identity: "10.0.0.1", ParagraphID: 3, Content: "טקסט אחר", At: at.Add(-time.Minute)}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Evaluate(in, tt.history).IsDuplicate; got != tt.want {
				t.Errorf("IsDuplicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_DuplicateIgnoresCase(t *testing.T) {
	engine := testEngine()
	at := time.Now()
	history := []Prior{{Identity: "a", ParagraphID: 1, Content: "Please Reconsider", At: at.Add(-time.Minute)}}

	res := engine.Evaluate(Input{Identity: "a", ParagraphID: 1, Content: "please   RECONSIDER", At: at}, history)
	if !res.IsDuplicate {
		t.Error("Case and whitespace differences should still be a duplicate")
	}
}

func TestEngine_DuplicateUsesCanonical(t *testing.T) {
	engine := testEngine()
	at := time.Now()
	history := []Prior{{Identity: "a", ParagraphID: 1, Content: "bold claim", At: at.Add(-time.Minute)}}

	res := engine.Evaluate(Input{Identity: "a", ParagraphID: 1, Content: "<b>bold</b> claim", Canonical: "bold claim", At: at}, history)
	if !res.IsDuplicate {
		t.Error("Canonical form should be compared against history")
	}
}

func TestResult_Reason(t *testing.T) {
	r := Result{SpamScore: 0.85, Signals: []string{SignalLinks, SignalTokens}}
	if got := r.Reason(); got != "auto: spam score 0.85 (links, spam_tokens)" {
		t.Errorf("Reason() = %q", got)
	}
}
