package services

import (
	"context"
	"strings"
	"testing"
)

type fakeAI struct {
	complete    func(system, user string) (string, error)
	generate    func(system, user, schemaName string, schema map[string]any) (map[string]any, error)
	embed       func(inputs []string) ([][]float32, error)
	completions int
}

func (f *fakeAI) Complete(ctx context.Context, system, user string) (string, error) {
	f.completions++
	if f.complete == nil {
		return user, nil
	}
	return f.complete(system, user)
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	if f.generate == nil {
		return map[string]any{}, nil
	}
	return f.generate(system, user, schemaName, schema)
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embed == nil {
		return nil, nil
	}
	return f.embed(inputs)
}

// breakAfterWords splits the input into paragraphs of at most n words,
// simulating a model that only inserts breaks and never edits words.
func breakAfterWords(n int) func(system, user string) (string, error) {
	return func(_, user string) (string, error) {
		words := strings.Fields(user)
		var paragraphs []string
		for len(words) > 0 {
			take := n
			if take > len(words) {
				take = len(words)
			}
			paragraphs = append(paragraphs, strings.Join(words[:take], " "))
			words = words[take:]
		}
		return strings.Join(paragraphs, "\n\n"), nil
	}
}

func TestReflowPreservesWordsAcrossFlushes(t *testing.T) {
	ai := &fakeAI{complete: breakAfterWords(4)}
	// small budget so the segment stream forces multiple flushes
	svc := NewReflowService(testLogger(t), ai, 10)

	segments := []string{
		"alpha bravo charlie delta echo",
		"foxtrot golf hotel india juliett",
		"kilo lima mike november oscar",
		"papa quebec romeo sierra tango",
		"uniform victor whiskey xray yankee",
	}

	out, err := svc.Reflow(context.Background(), segments)
	if err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if ai.completions < 2 {
		t.Fatalf("completions = %d, want at least 2 flush cycles", ai.completions)
	}

	want := strings.Fields(strings.Join(segments, " "))
	got := strings.Fields(out)
	if len(got) != len(want) {
		t.Fatalf("word count = %d, want %d\noutput: %q", len(got), len(want), out)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReflowSingleSmallInputIsOneCall(t *testing.T) {
	ai := &fakeAI{complete: breakAfterWords(100)}
	svc := NewReflowService(testLogger(t), ai, 2000)

	out, err := svc.Reflow(context.Background(), []string{"just one short segment"})
	if err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if ai.completions != 1 {
		t.Fatalf("completions = %d, want 1", ai.completions)
	}
	if out != "just one short segment" {
		t.Fatalf("out = %q", out)
	}
}

func TestReflowSkipsEmptySegments(t *testing.T) {
	ai := &fakeAI{}
	svc := NewReflowService(testLogger(t), ai, 2000)

	out, err := svc.Reflow(context.Background(), []string{"", "   ", "\n"})
	if err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if out != "" {
		t.Fatalf("out = %q, want empty", out)
	}
	if ai.completions != 0 {
		t.Fatalf("completions = %d, want 0", ai.completions)
	}
}

func TestReflowOversizedSegmentGoesWhole(t *testing.T) {
	var seenInputs []string
	ai := &fakeAI{complete: func(_, user string) (string, error) {
		seenInputs = append(seenInputs, user)
		return user, nil
	}}
	svc := NewReflowService(testLogger(t), ai, 5)

	big := strings.Repeat("wordword ", 20) // far over a 5-token budget
	out, err := svc.Reflow(context.Background(), []string{big})
	if err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if len(seenInputs) != 1 {
		t.Fatalf("rewrite calls = %d, want 1", len(seenInputs))
	}
	if strings.TrimSpace(out) != strings.TrimSpace(big) {
		t.Fatalf("oversized segment was altered")
	}
}
