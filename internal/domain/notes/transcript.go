package notes

import (
	"encoding/json"
	"strings"
)

// Word is one recognized token with millisecond offsets relative to
// the start of the recording. HighlightIDs carries the ids of every
// highlight whose range covers this word.
type Word struct {
	StartMs      int64    `json:"start"`
	EndMs        int64    `json:"end"`
	Text         string   `json:"text"`
	HighlightIDs []string `json:"highlight_ids,omitempty"`
}

// Utterance is one speaker turn. Words are time-ordered and
// non-overlapping within an utterance.
type Utterance struct {
	Speaker string `json:"speaker"`
	Words   []Word `json:"words"`
}

// Transcript is the word-timestamped structure a speech provider
// produces for an audio or video note. It is persisted as a jsonb
// blob on the note row and mutated only by highlight tagging.
type Transcript struct {
	Utterances []Utterance `json:"utterances"`
}

func ParseTranscript(raw []byte) (*Transcript, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Transcript) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

// FullText joins every word across all utterances with single spaces.
func (t *Transcript) FullText() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, u := range t.Utterances {
		for _, w := range u.Words {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(w.Text)
		}
	}
	return b.String()
}

// SpeakerText renders the transcript as one "Speaker: text" line per
// utterance, in order.
func (t *Transcript) SpeakerText() string {
	if t == nil {
		return ""
	}
	lines := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		words := make([]string, 0, len(u.Words))
		for _, w := range u.Words {
			words = append(words, w.Text)
		}
		txt := strings.Join(words, " ")
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if u.Speaker != "" {
			txt = u.Speaker + ": " + txt
		}
		lines = append(lines, txt)
	}
	return strings.Join(lines, "\n")
}

// DurationMs is the end offset of the last word in the transcript.
func (t *Transcript) DurationMs() int64 {
	if t == nil {
		return 0
	}
	var max int64
	for _, u := range t.Utterances {
		for _, w := range u.Words {
			if w.EndMs > max {
				max = w.EndMs
			}
		}
	}
	return max
}

// TextInRange returns the space-joined text of every word whose span
// lies fully within [startMs, endMs], across all utterances in
// original order. Words that only partially overlap the range are
// excluded. Returns "" when no word qualifies.
func (t *Transcript) TextInRange(startMs, endMs int64) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, u := range t.Utterances {
		for _, w := range u.Words {
			if w.StartMs >= startMs && w.EndMs <= endMs {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(w.Text)
			}
		}
	}
	return b.String()
}

// TagHighlight appends highlightID to every word between the word
// whose start offset equals startMs and the word whose end offset
// equals endMs, inclusive. Capture only begins on an exact start
// match; when no word starts at exactly startMs the transcript is
// left untouched. Reports whether any word was tagged.
func (t *Transcript) TagHighlight(startMs, endMs int64, highlightID string) bool {
	if t == nil {
		return false
	}
	capturing := false
	tagged := false
	for ui := range t.Utterances {
		u := &t.Utterances[ui]
		for wi := range u.Words {
			w := &u.Words[wi]
			if !capturing && w.StartMs == startMs {
				capturing = true
			}
			if !capturing {
				continue
			}
			w.HighlightIDs = append(w.HighlightIDs, highlightID)
			tagged = true
			if w.EndMs == endMs {
				return tagged
			}
		}
	}
	return tagged
}

// UntagHighlight is the mirror of TagHighlight: it removes one
// occurrence of highlightID from each captured word, if present.
func (t *Transcript) UntagHighlight(startMs, endMs int64, highlightID string) bool {
	if t == nil {
		return false
	}
	capturing := false
	changed := false
	for ui := range t.Utterances {
		u := &t.Utterances[ui]
		for wi := range u.Words {
			w := &u.Words[wi]
			if !capturing && w.StartMs == startMs {
				capturing = true
			}
			if !capturing {
				continue
			}
			if removeFirst(&w.HighlightIDs, highlightID) {
				changed = true
			}
			if w.EndMs == endMs {
				return changed
			}
		}
	}
	return changed
}

func removeFirst(ids *[]string, id string) bool {
	for i, v := range *ids {
		if v == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			if len(*ids) == 0 {
				*ids = nil
			}
			return true
		}
	}
	return false
}
