package gcp

import (
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/text/language"
)

func TestDetectSampleKeepsRunesWhole(t *testing.T) {
	short := "bonjour tout le monde"
	if got := detectSample(short); got != short {
		t.Fatalf("short text modified: %q", got)
	}

	ascii := strings.Repeat("a", detectSampleBytes+500)
	if got := detectSample(ascii); len(got) != detectSampleBytes {
		t.Fatalf("ascii prefix = %d bytes, want %d", len(got), detectSampleBytes)
	}

	// three bytes per rune; the byte ceiling lands mid-rune, the cut
	// must back up to the previous boundary
	cjk := strings.Repeat("語", 1000)
	got := detectSample(cjk)
	if !utf8.ValidString(got) {
		t.Fatal("sample is not valid UTF-8")
	}
	if len(got) != detectSampleBytes-detectSampleBytes%3 {
		t.Fatalf("sample = %d bytes, want %d", len(got), detectSampleBytes-detectSampleBytes%3)
	}
}

func TestSameBaseLanguage(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"en", "en-US", true},
		{"pt-BR", "pt", true},
		{"en", "fr", false},
		{"zh-TW", "ja", false},
	}
	for _, tc := range cases {
		at := language.MustParse(tc.a)
		bt := language.MustParse(tc.b)
		if got := sameBaseLanguage(at, bt); got != tc.want {
			t.Fatalf("sameBaseLanguage(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
