package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"github.com/notabene-app/notabene-backend/internal/platform/ctxutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

// Translator detects the source language of extracted text and
// translates it into the note's target language when they differ.
type Translator interface {
	TranslateIfNeeded(ctx context.Context, text string, targetLang string) (string, error)
	Close() error
}

type translateClient struct {
	log    *logger.Logger
	client *translate.Client
}

func NewTranslator(log *logger.Logger) (Translator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Translate")

	c, err := translate.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("translate client: %w", err)
	}
	return &translateClient{log: slog, client: c}, nil
}

func (t *translateClient) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

func (t *translateClient) TranslateIfNeeded(ctx context.Context, text string, targetLang string) (string, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	target, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("parse target language %q: %w", targetLang, err)
	}

	// Detection on a prefix is enough to pick a language and keeps the
	// payload small.
	dets, err := t.client.DetectLanguage(ctx, []string{detectSample(text)})
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	if len(dets) > 0 && len(dets[0]) > 0 {
		detected := dets[0][0].Language
		if sameBaseLanguage(detected, target) {
			return text, nil
		}
	}

	out, err := t.client.Translate(ctx, []string{text}, target, &translate.Options{Format: translate.Text})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}
	t.log.Debug("translated text", "target", target.String(), "chars", len(text))
	return out[0].Text, nil
}

const detectSampleBytes = 2000

// detectSample cuts the prefix on a rune boundary so the detection
// call never receives a broken UTF-8 tail.
func detectSample(text string) string {
	if len(text) <= detectSampleBytes {
		return text
	}
	cut := detectSampleBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func sameBaseLanguage(a, b language.Tag) bool {
	ab, _ := a.Base()
	bb, _ := b.Base()
	return ab == bb
}
