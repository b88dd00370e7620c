package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notabene-app/notabene-backend/internal/clients/openai"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
)

const (
	mapSystemPrompt    = `Summarize the following meeting-note text in a short paragraph. Keep names, decisions, and action items.`
	reduceSystemPrompt = `You extract structured metadata from meeting-note summaries. Use only information present in the text.`
)

// NoteMetadata is the reduce stage's structured output.
type NoteMetadata struct {
	Title       string
	Description string
	TypeGuess   string
	Summary     []string
	Sentiment   string
	Keywords    []string
}

var metadataSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"note_type":   map[string]any{"type": "string"},
		"summary": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"sentiment": map[string]any{
			"type": "string",
			"enum": []string{"positive", "neutral", "negative", ""},
		},
		"keywords": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required":             []string{"title", "description", "note_type", "summary", "sentiment", "keywords"},
	"additionalProperties": false,
}

// SummarizeService produces note metadata by map-reduce: each chunk is
// summarized independently, then the concatenated chunk summaries go
// through one schema-constrained extraction call.
type SummarizeService interface {
	GenerateMetadata(ctx context.Context, text string) (*NoteMetadata, error)
	// ClassifyType embeds the free-text type guess and nearest-neighbor
	// matches it against the project's note-type catalog. Returns nil
	// when no catalog entry scores above the empty-string baseline.
	ClassifyType(ctx context.Context, projectID uuid.UUID, guess string) (*uuid.UUID, error)
	// AttachKeywords dedupes against the global keyword table by exact
	// name, creates the missing rows, and links them to the note.
	AttachKeywords(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, names []string) error
}

type summarizeService struct {
	log         *logger.Logger
	ai          openai.Client
	noteTypes   repos.NoteTypeRepo
	keywords    repos.KeywordRepo
	chunkTokens int
}

func NewSummarizeService(log *logger.Logger, ai openai.Client, noteTypes repos.NoteTypeRepo, keywords repos.KeywordRepo, chunkTokens int) SummarizeService {
	if chunkTokens <= 0 {
		chunkTokens = 2000
	}
	return &summarizeService{
		log:         log.With("service", "SummarizeService"),
		ai:          ai,
		noteTypes:   noteTypes,
		keywords:    keywords,
		chunkTokens: chunkTokens,
	}
}

func (s *summarizeService) GenerateMetadata(ctx context.Context, text string) (*NoteMetadata, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("openai client not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to summarize")
	}

	chunks := splitIntoChunks(segmentText(text), s.chunkTokens)

	// Map: chunk summaries are each stage's own LLM call, run in
	// order; each chunk is independent of the others.
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.ai.Complete(ctx, mapSystemPrompt, chunk)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, strings.TrimSpace(summary))
	}

	// Reduce: one structured-extraction call over the joined summaries.
	joined := strings.Join(summaries, "\n\n")
	obj, err := s.ai.GenerateJSON(ctx, reduceSystemPrompt, joined, "note_metadata", metadataSchema)
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	meta := &NoteMetadata{
		Title:       stringField(obj, "title"),
		Description: stringField(obj, "description"),
		TypeGuess:   stringField(obj, "note_type"),
		Summary:     stringSliceField(obj, "summary"),
		Sentiment:   stringField(obj, "sentiment"),
		Keywords:    normalizeKeywords(stringSliceField(obj, "keywords")),
	}
	return meta, nil
}

func (s *summarizeService) ClassifyType(ctx context.Context, projectID uuid.UUID, guess string) (*uuid.UUID, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" || projectID == uuid.Nil {
		return nil, nil
	}
	catalog, err := s.noteTypes.ListByProjectID(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("load note-type catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	// One embedding call covers the guess and the empty-string
	// calibration baseline.
	vecs, err := s.ai.Embed(ctx, []string{guess, ""})
	if err != nil {
		return nil, fmt.Errorf("embed type guess: %w", err)
	}
	queryVec, emptyVec := vecs[0], vecs[1]
	baseline := innerProduct(queryVec, emptyVec)

	entries := make([]typeCandidate, 0, len(catalog))
	for _, nt := range catalog {
		vec := nt.Vector()
		if vec == nil {
			continue
		}
		entries = append(entries, typeCandidate{id: nt.ID, vector: vec})
	}
	return bestTypeMatch(queryVec, baseline, entries), nil
}

type typeCandidate struct {
	id     uuid.UUID
	vector []float32
}

// bestTypeMatch picks the highest-inner-product candidate strictly
// above the baseline score; nil when none qualifies.
func bestTypeMatch(query []float32, baseline float64, candidates []typeCandidate) *uuid.UUID {
	var (
		best      *uuid.UUID
		bestScore float64
	)
	for i := range candidates {
		score := innerProduct(query, candidates[i].vector)
		if score <= baseline {
			continue
		}
		if best == nil || score > bestScore {
			id := candidates[i].id
			best = &id
			bestScore = score
		}
	}
	return best
}

func innerProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func (s *summarizeService) AttachKeywords(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, names []string) error {
	names = normalizeKeywords(names)
	if len(names) == 0 {
		return nil
	}
	rows, err := s.keywords.CreateMissing(ctx, tx, names)
	if err != nil {
		return fmt.Errorf("create keywords: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, k := range rows {
		ids = append(ids, k.ID)
	}
	if err := s.keywords.LinkToNote(ctx, tx, noteID, ids); err != nil {
		return fmt.Errorf("link keywords: %w", err)
	}
	return nil
}

func normalizeKeywords(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringSliceField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
