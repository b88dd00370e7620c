package notes

import (
	"reflect"
	"testing"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		Utterances: []Utterance{
			{
				Speaker: "A",
				Words: []Word{
					{StartMs: 0, EndMs: 500, Text: "hello"},
					{StartMs: 500, EndMs: 900, Text: "there"},
					{StartMs: 900, EndMs: 1400, Text: "friend"},
				},
			},
			{
				Speaker: "B",
				Words: []Word{
					{StartMs: 1400, EndMs: 1700, Text: "good"},
					{StartMs: 1700, EndMs: 2000, Text: "to"},
					{StartMs: 2000, EndMs: 2400, Text: "know"},
				},
			},
		},
	}
}

func TestTextInRange(t *testing.T) {
	// Two utterances, three words each, contiguous non-overlapping
	// millisecond ranges.
	tr := &Transcript{
		Utterances: []Utterance{
			{Speaker: "A", Words: []Word{
				{StartMs: 0, EndMs: 500, Text: "one"},
				{StartMs: 500, EndMs: 900, Text: "two"},
				{StartMs: 900, EndMs: 1400, Text: "three"},
			}},
			{Speaker: "B", Words: []Word{
				{StartMs: 1400, EndMs: 1900, Text: "four"},
				{StartMs: 1900, EndMs: 2300, Text: "five"},
				{StartMs: 2300, EndMs: 2800, Text: "six"},
			}},
		},
	}

	cases := []struct {
		name  string
		start int64
		end   int64
		want  string
	}{
		{name: "full_range", start: 0, end: 2800, want: "one two three four five six"},
		{name: "first_four", start: 0, end: 1900, want: "one two three four"},
		{name: "first_two", start: 0, end: 900, want: "one two"},
		{name: "partial_overlap_excluded", start: 100, end: 1000, want: "two"},
		{name: "crosses_utterances", start: 900, end: 1900, want: "three four"},
		{name: "no_words", start: 3000, end: 4000, want: ""},
		{name: "empty_range", start: 700, end: 800, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tr.TextInRange(tc.start, tc.end)
			if got != tc.want {
				t.Fatalf("TextInRange(%d,%d)=%q, want %q", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestTagHighlightExactBoundaries(t *testing.T) {
	tr := sampleTranscript()
	if tagged := tr.TagHighlight(500, 1700, "h1"); !tagged {
		t.Fatal("expected capture to begin at an exact start boundary")
	}

	// Capture stops at "good", the word whose end lands exactly on the
	// requested end boundary.
	wantTags := [][]string{
		nil, {"h1"}, {"h1"}, // utterance A
		{"h1"}, nil, nil, // utterance B
	}
	i := 0
	for _, u := range tr.Utterances {
		for _, w := range u.Words {
			if !reflect.DeepEqual(w.HighlightIDs, wantTags[i]) {
				t.Fatalf("word %d (%q): tags=%v, want %v", i, w.Text, w.HighlightIDs, wantTags[i])
			}
			i++
		}
	}
}

func TestTagHighlightNoExactStartIsNoop(t *testing.T) {
	tr := sampleTranscript()
	if tagged := tr.TagHighlight(501, 1700, "h1"); tagged {
		t.Fatal("capture must not begin without an exact start boundary")
	}
	for _, u := range tr.Utterances {
		for _, w := range u.Words {
			if len(w.HighlightIDs) != 0 {
				t.Fatalf("word %q unexpectedly tagged: %v", w.Text, w.HighlightIDs)
			}
		}
	}
}

func TestTagHighlightNoExactEndCapturesToTail(t *testing.T) {
	// Capture begins at the matching start and runs off the end of the
	// transcript when no word ends at exactly endMs.
	tr := sampleTranscript()
	tr.TagHighlight(900, 1750, "h1")
	var tagged []string
	for _, u := range tr.Utterances {
		for _, w := range u.Words {
			if len(w.HighlightIDs) > 0 {
				tagged = append(tagged, w.Text)
			}
		}
	}
	want := []string{"friend", "good", "to", "know"}
	if !reflect.DeepEqual(tagged, want) {
		t.Fatalf("tagged words=%v, want %v", tagged, want)
	}
}

func TestTagThenUntagIsIdempotent(t *testing.T) {
	tr := sampleTranscript()
	// Pre-existing tag from another highlight must survive.
	tr.TagHighlight(0, 900, "h0")

	before := make([][]string, 0)
	for _, u := range tr.Utterances {
		for _, w := range u.Words {
			before = append(before, append([]string(nil), w.HighlightIDs...))
		}
	}

	if !tr.TagHighlight(500, 1700, "h1") {
		t.Fatal("tag failed")
	}
	if !tr.UntagHighlight(500, 1700, "h1") {
		t.Fatal("untag failed")
	}

	i := 0
	for _, u := range tr.Utterances {
		for _, w := range u.Words {
			got := w.HighlightIDs
			want := before[i]
			if len(got) == 0 && len(want) == 0 {
				i++
				continue
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("word %q: tags=%v, want %v", w.Text, got, want)
			}
			i++
		}
	}
}

func TestUntagRemovesSingleOccurrence(t *testing.T) {
	tr := sampleTranscript()
	tr.TagHighlight(0, 500, "h1")
	tr.TagHighlight(0, 500, "h1")

	tr.UntagHighlight(0, 500, "h1")
	w := tr.Utterances[0].Words[0]
	if !reflect.DeepEqual(w.HighlightIDs, []string{"h1"}) {
		t.Fatalf("tags after single untag=%v, want [h1]", w.HighlightIDs)
	}
}

func TestFullTextAndDuration(t *testing.T) {
	tr := sampleTranscript()
	if got := tr.FullText(); got != "hello there friend good to know" {
		t.Fatalf("FullText=%q", got)
	}
	if got := tr.DurationMs(); got != 2400 {
		t.Fatalf("DurationMs=%d, want 2400", got)
	}
}

func TestSpeakerText(t *testing.T) {
	tr := sampleTranscript()
	want := "A: hello there friend\nB: good to know"
	if got := tr.SpeakerText(); got != want {
		t.Fatalf("SpeakerText=%q, want %q", got, want)
	}
}

func TestParseTranscriptRoundTrip(t *testing.T) {
	tr := sampleTranscript()
	tr.TagHighlight(0, 500, "h1")
	raw, err := tr.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseTranscript(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(tr, back) {
		t.Fatalf("round trip mismatch")
	}
	if parsed, err := ParseTranscript(nil); err != nil || parsed != nil {
		t.Fatalf("ParseTranscript(nil)=%v,%v, want nil,nil", parsed, err)
	}
}
