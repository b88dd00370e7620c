package gcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/notabene-app/notabene-backend/internal/domain/notes"
	"github.com/notabene-app/notabene-backend/internal/platform/ctxutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

// Speech turns an audio or video file into a word-timestamped
// transcript with speaker labels.
type Speech interface {
	Transcribe(ctx context.Context, audio []byte, fileName string, languageCode string) (*notes.Transcript, error)
	Close() error
}

type speechClient struct {
	log    *logger.Logger
	client *speech.Client

	maxRetries int
}

func NewSpeech(log *logger.Logger) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Speech")

	c, err := speech.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &speechClient{log: slog, client: c, maxRetries: 4}, nil
}

func (s *speechClient) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechClient) Transcribe(ctx context.Context, audio []byte, fileName string, languageCode string) (*notes.Transcript, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	if len(audio) == 0 {
		return &notes.Transcript{}, nil
	}
	if languageCode == "" {
		languageCode = "en-US"
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               languageCode,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			Encoding:                   inferEncoding(fileName),
			DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
				EnableSpeakerDiarization: true,
			},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
	}

	return buildTranscript(resp), nil
}

func inferEncoding(fileName string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		// the API can usually detect container formats on its own
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// buildTranscript groups contiguous words by speaker tag into
// utterances, converting offsets to milliseconds.
func buildTranscript(resp *speechpb.LongRunningRecognizeResponse) *notes.Transcript {
	tr := &notes.Transcript{}
	if resp == nil {
		return tr
	}

	var cur *notes.Utterance
	curTag := -1

	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		for _, w := range r.Alternatives[0].Words {
			if w == nil || strings.TrimSpace(w.Word) == "" {
				continue
			}
			tag := int(w.SpeakerTag)
			if cur == nil || tag != curTag {
				tr.Utterances = append(tr.Utterances, notes.Utterance{
					Speaker: speakerLabel(tag),
				})
				cur = &tr.Utterances[len(tr.Utterances)-1]
				curTag = tag
			}
			cur.Words = append(cur.Words, notes.Word{
				StartMs: durToMs(w.StartTime),
				EndMs:   durToMs(w.EndTime),
				Text:    w.Word,
			})
		}
	}
	return tr
}

func speakerLabel(tag int) string {
	if tag <= 0 {
		return "Speaker"
	}
	return fmt.Sprintf("Speaker %d", tag)
}

func durToMs(d *durationpb.Duration) int64 {
	if d == nil {
		return 0
	}
	return d.Seconds*1000 + int64(d.Nanos)/1_000_000
}

func (s *speechClient) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}
