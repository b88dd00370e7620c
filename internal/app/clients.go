package app

import (
	"fmt"

	"github.com/notabene-app/notabene-backend/internal/clients/gcp"
	"github.com/notabene-app/notabene-backend/internal/clients/openai"
	rdb "github.com/notabene-app/notabene-backend/internal/clients/redis"
	"github.com/notabene-app/notabene-backend/internal/platform/envutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

type Clients struct {
	OpenAI     openai.Client
	Speech     gcp.Speech
	Document   gcp.Document
	Translator gcp.Translator
	Bucket     gcp.Bucket
	Locker     rdb.NoteLocker
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("wiring clients")

	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	speech, err := gcp.NewSpeech(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init speech client: %w", err)
	}
	document, err := gcp.NewDocument(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init documentai client: %w", err)
	}
	translator, err := gcp.NewTranslator(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init translate client: %w", err)
	}
	bucket, err := gcp.NewBucket(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init storage client: %w", err)
	}

	// redis is optional; the analyzer falls back to the database CAS
	var locker rdb.NoteLocker
	if envutil.GetEnv("REDIS_ADDR", "", nil) != "" {
		locker, err = rdb.NewNoteLocker(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set, running without the redis note lock")
	}

	return Clients{
		OpenAI:     ai,
		Speech:     speech,
		Document:   document,
		Translator: translator,
		Bucket:     bucket,
		Locker:     locker,
	}, nil
}

func (c Clients) Close() {
	if c.Speech != nil {
		_ = c.Speech.Close()
	}
	if c.Document != nil {
		_ = c.Document.Close()
	}
	if c.Translator != nil {
		_ = c.Translator.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Locker != nil {
		_ = c.Locker.Close()
	}
}
