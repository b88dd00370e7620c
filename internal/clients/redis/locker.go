package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/notabene-app/notabene-backend/internal/platform/envutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

// NoteLocker guarantees at most one concurrent analysis pipeline per
// note across all server processes. Acquire is an atomic SET NX with a
// TTL so a crashed worker cannot hold a note forever.
type NoteLocker interface {
	Acquire(ctx context.Context, noteID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, noteID uuid.UUID) error
	Close() error
}

type noteLocker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewNoteLocker(log *logger.Logger) (NoteLocker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.GetEnv("REDIS_PASSWORD", "", nil),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &noteLocker{
		log:    log.With("client", "RedisNoteLocker"),
		rdb:    rdb,
		prefix: "notabene:analyze:",
	}, nil
}

func (l *noteLocker) key(noteID uuid.UUID) string {
	return l.prefix + noteID.String()
}

func (l *noteLocker) Acquire(ctx context.Context, noteID uuid.UUID, ttl time.Duration) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, fmt.Errorf("note locker not initialized")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	ok, err := l.rdb.SetNX(ctx, l.key(noteID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *noteLocker) Release(ctx context.Context, noteID uuid.UUID) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("note locker not initialized")
	}
	if err := l.rdb.Del(ctx, l.key(noteID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (l *noteLocker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
