package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/notabene-app/notabene-backend/internal/clients/openai"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

const reflowSystemPrompt = `You reformat raw speech transcripts. Insert paragraph breaks at natural topic boundaries. Do not add, remove, or rewrite any words; only change where paragraphs begin and end. Separate paragraphs with a blank line.`

// ReflowService re-inserts paragraph breaks into a long stream of
// transcript segments without altering the words, keeping each LLM
// call under a configured token budget.
//
// On every intermediate flush, the last returned paragraph is presumed
// possibly incomplete and is carried forward into the next buffer so a
// paragraph spanning a chunk boundary is not cut in two. A single
// segment larger than the budget is still sent whole; the call
// deliberately overshoots rather than splitting inside a segment.
type ReflowService interface {
	Reflow(ctx context.Context, segments []string) (string, error)
}

type reflowService struct {
	log         *logger.Logger
	ai          openai.Client
	chunkTokens int
}

func NewReflowService(log *logger.Logger, ai openai.Client, chunkTokens int) ReflowService {
	if chunkTokens <= 0 {
		chunkTokens = 2000
	}
	return &reflowService{
		log:         log.With("service", "ReflowService"),
		ai:          ai,
		chunkTokens: chunkTokens,
	}
}

func (s *reflowService) Reflow(ctx context.Context, segments []string) (string, error) {
	if s.ai == nil {
		return "", fmt.Errorf("openai client not configured")
	}

	var (
		finalized []string
		buf       []string
		bufTokens int
	)

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		t := estimateTokens(seg)
		if len(buf) > 0 && bufTokens+t > s.chunkTokens {
			paragraphs, err := s.rewrite(ctx, strings.Join(buf, " "))
			if err != nil {
				return "", err
			}
			if len(paragraphs) > 1 {
				finalized = append(finalized, paragraphs[:len(paragraphs)-1]...)
			}
			// carry the (possibly incomplete) tail paragraph forward
			buf = buf[:0]
			bufTokens = 0
			if len(paragraphs) > 0 {
				tail := paragraphs[len(paragraphs)-1]
				buf = append(buf, tail)
				bufTokens = estimateTokens(tail)
			}
		}
		buf = append(buf, seg)
		bufTokens += t
	}

	if len(buf) > 0 {
		paragraphs, err := s.rewrite(ctx, strings.Join(buf, " "))
		if err != nil {
			return "", err
		}
		finalized = append(finalized, paragraphs...)
	}

	return strings.Join(finalized, "\n"), nil
}

func (s *reflowService) rewrite(ctx context.Context, text string) ([]string, error) {
	out, err := s.ai.Complete(ctx, reflowSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("reflow rewrite: %w", err)
	}
	var paragraphs []string
	for _, p := range strings.Split(out, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		paragraphs = []string{strings.TrimSpace(text)}
	}
	return paragraphs, nil
}
