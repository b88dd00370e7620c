package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 40), 10},
	}
	for _, tt := range tests {
		if got := estimateTokens(tt.in); got != tt.want {
			t.Fatalf("estimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplitIntoChunks(t *testing.T) {
	seg := strings.Repeat("x", 24) // 6 tokens

	tests := []struct {
		name     string
		segments []string
		budget   int
		want     int
	}{
		{"all fit in one", []string{seg, seg}, 20, 1},
		{"split on overflow", []string{seg, seg, seg}, 10, 3},
		{"two per chunk", []string{seg, seg, seg, seg}, 12, 2},
		{"oversized segment kept whole", []string{strings.Repeat("x", 100)}, 10, 1},
		{"blank segments dropped", []string{"", "  ", seg}, 10, 1},
		{"empty input", nil, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitIntoChunks(tt.segments, tt.budget)
			if len(got) != tt.want {
				t.Fatalf("chunks = %d, want %d (%q)", len(got), tt.want, got)
			}
		})
	}
}

func TestSplitIntoChunksPreservesContent(t *testing.T) {
	segments := []string{"first part", "second part", "third part"}
	chunks := splitIntoChunks(segments, 4)

	joined := strings.Join(chunks, "\n")
	for _, seg := range segments {
		if !strings.Contains(joined, seg) {
			t.Fatalf("chunks lost segment %q: %q", seg, chunks)
		}
	}
}

func TestSegmentText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lines", "a\nb\n\nc", []string{"a", "b", "c"}},
		{"trims whitespace", "  a  \n\t b ", []string{"a", "b"}},
		{"single line", "just one line", []string{"just one line"}},
		{"empty", "   \n  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentText(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("segmentText(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
