package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/notabene-app/notabene-backend/internal/clients/gcp"
	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

// ErrUnsupportedFiletype is returned when no registered strategy
// declares the file's extension.
var ErrUnsupportedFiletype = apierr.New(http.StatusUnsupportedMediaType, "unsupported_filetype",
	errors.New("unsupported filetype"))

// Strategy kinds. Only KindSpeech is billed by audio duration.
const (
	KindSpeech = "speech"
	KindPDF    = "pdf"
	KindDocx   = "docx"
	KindText   = "text"
)

type TranscribeInput struct {
	FileName   string
	Data       []byte
	TargetLang string
}

type TranscribeOutput struct {
	Kind         string
	Text         string
	Transcript   *notes.Transcript
	AudioSeconds float64
}

// TranscriberService routes a file to the first strategy that handles
// its extension, in a fixed priority order, then normalizes the
// extracted text (byte-ceiling truncation, translate when the detected
// source language disagrees with the target).
type TranscriberService interface {
	Transcribe(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error)
	// LastKind reports which strategy handled the most recent request;
	// billing consults it to decide whether duration metering applies.
	LastKind() string
}

type transcriberStrategy interface {
	kind() string
	handles(ext string) bool
	run(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error)
}

type transcriberService struct {
	log        *logger.Logger
	strategies []transcriberStrategy
	translator gcp.Translator
	maxBytes   int

	mu       sync.Mutex
	lastKind string
}

func NewTranscriberService(log *logger.Logger, speech gcp.Speech, document gcp.Document, translator gcp.Translator, maxTextBytes int) TranscriberService {
	if maxTextBytes <= 0 {
		maxTextBytes = 200_000
	}
	return &transcriberService{
		log: log.With("service", "TranscriberService"),
		strategies: []transcriberStrategy{
			&speechStrategy{speech: speech},
			&pdfStrategy{document: document},
			&docxStrategy{},
			&textStrategy{},
		},
		translator: translator,
		maxBytes:   maxTextBytes,
	}
}

func (s *transcriberService) Transcribe(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.FileName), "."))
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFiletype, in.FileName)
	}

	for _, strat := range s.strategies {
		if !strat.handles(ext) {
			continue
		}
		out, err := strat.run(ctx, in)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.lastKind = strat.kind()
		s.mu.Unlock()

		out.Kind = strat.kind()
		out.Text = truncateBytes(out.Text, s.maxBytes)
		if s.translator != nil && in.TargetLang != "" && out.Text != "" {
			translated, err := s.translator.TranslateIfNeeded(ctx, out.Text, in.TargetLang)
			if err != nil {
				return nil, fmt.Errorf("translate extracted text: %w", err)
			}
			out.Text = translated
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFiletype, ext)
}

func (s *transcriberService) LastKind() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKind
}

// IsAudioVideoFile reports whether the file would route to the
// duration-billed speech strategy.
func IsAudioVideoFile(fileName string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	return speechExtensions[ext]
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ---- speech (audio / video) ----

var speechExtensions = map[string]bool{
	"mp3": true, "wav": true, "m4a": true, "aac": true, "flac": true,
	"ogg": true, "opus": true,
	"mp4": true, "mov": true, "webm": true, "mkv": true,
}

type speechStrategy struct {
	speech gcp.Speech
}

func (s *speechStrategy) kind() string { return KindSpeech }

func (s *speechStrategy) handles(ext string) bool { return speechExtensions[ext] }

func (s *speechStrategy) run(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error) {
	if s.speech == nil {
		return nil, fmt.Errorf("speech client not configured")
	}
	tr, err := s.speech.Transcribe(ctx, in.Data, in.FileName, speechLanguageCode(in.TargetLang))
	if err != nil {
		return nil, fmt.Errorf("speech transcribe: %w", err)
	}
	return &TranscribeOutput{
		Text:         tr.FullText(),
		Transcript:   tr,
		AudioSeconds: float64(tr.DurationMs()) / 1000.0,
	}, nil
}

// speechLanguageCode widens a bare language tag into the regioned
// codes the speech API expects.
func speechLanguageCode(lang string) string {
	switch strings.ToLower(lang) {
	case "", "en":
		return "en-US"
	case "es":
		return "es-ES"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	case "pt":
		return "pt-BR"
	case "ja":
		return "ja-JP"
	default:
		if strings.Contains(lang, "-") {
			return lang
		}
		return lang + "-" + strings.ToUpper(lang)
	}
}

// ---- pdf ----

type pdfStrategy struct {
	document gcp.Document
}

func (s *pdfStrategy) kind() string { return KindPDF }

func (s *pdfStrategy) handles(ext string) bool { return ext == "pdf" }

func (s *pdfStrategy) run(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error) {
	if s.document == nil {
		return nil, fmt.Errorf("document client not configured")
	}
	text, err := s.document.ExtractText(ctx, in.Data, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("pdf extract: %w", err)
	}
	return &TranscribeOutput{Text: text}, nil
}

// ---- docx ----

type docxStrategy struct{}

func (s *docxStrategy) kind() string { return KindDocx }

func (s *docxStrategy) handles(ext string) bool { return ext == "docx" }

func (s *docxStrategy) run(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error) {
	text, err := extractDocxText(in.Data)
	if err != nil {
		return nil, fmt.Errorf("docx extract: %w", err)
	}
	return &TranscribeOutput{Text: text}, nil
}

// ---- plain text ----

var textExtensions = map[string]bool{
	"txt": true, "md": true, "markdown": true, "text": true,
}

type textStrategy struct{}

func (s *textStrategy) kind() string { return KindText }

func (s *textStrategy) handles(ext string) bool { return textExtensions[ext] }

func (s *textStrategy) run(ctx context.Context, in TranscribeInput) (*TranscribeOutput, error) {
	return &TranscribeOutput{Text: string(in.Data)}, nil
}
