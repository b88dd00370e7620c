package jobs

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	types "github.com/notabene-app/notabene-backend/internal/domain"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/repos"
	"github.com/notabene-app/notabene-backend/internal/services"
)

// Worker polls the analysis_run queue and drives the analyzer.
// Claims are atomic (SKIP LOCKED), so any number of processes can run
// workers against the same database.
type Worker struct {
	log      *logger.Logger
	runs     repos.AnalysisRunRepo
	analyzer services.AnalyzerService

	concurrency  int
	pollInterval time.Duration
	heartbeat    time.Duration
	staleAfter   time.Duration

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewWorker(baseLog *logger.Logger, runs repos.AnalysisRunRepo, analyzer services.AnalyzerService, concurrency int, pollInterval time.Duration) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Worker{
		log:          baseLog.With("component", "AnalysisWorker"),
		runs:         runs,
		analyzer:     analyzer,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		heartbeat:    15 * time.Second,
		// must stay well above the heartbeat interval, or live runs
		// get requeued mid-flight
		staleAfter: 2 * time.Minute,
	}
}

func (w *Worker) Start(ctx context.Context) {
	if w == nil || w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	w.group = g
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			w.loop(gctx)
			return nil
		})
	}
	g.Go(func() error {
		w.reapLoop(gctx)
		return nil
	})
	w.log.Info("analysis worker started", "concurrency", w.concurrency, "poll_interval", w.pollInterval.String())
}

func (w *Worker) Stop() {
	if w == nil || w.cancel == nil {
		return
	}
	w.cancel()
	_ = w.group.Wait()
	w.cancel = nil
	w.log.Info("analysis worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		run, err := w.runs.ClaimNext(ctx, nil)
		if err != nil {
			w.log.Error("claim next run", "error", err)
		} else if run != nil {
			w.process(ctx, run)
			// drain the queue before going back to sleep
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) process(ctx context.Context, run *types.AnalysisRun) {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go w.heartbeatLoop(hbCtx, run)
	defer stopHeartbeat()

	if err := w.analyzer.Run(ctx, run); err != nil {
		// the analyzer already persisted the failure state
		w.log.Warn("analysis run failed", "run_id", run.ID, "note_id", run.NoteID, "error", err)
	}
}

// reapLoop periodically returns runs abandoned by a dead worker to
// the queue. Any worker may reap; the requeue is a single atomic
// update, so overlapping reapers are harmless.
func (w *Worker) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(w.staleAfter)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reap(ctx)
		}
	}
}

func (w *Worker) reap(ctx context.Context) {
	n, err := w.runs.RequeueStale(ctx, nil, w.staleAfter)
	if err != nil {
		w.log.Error("requeue stale runs", "error", err)
		return
	}
	if n > 0 {
		w.log.Warn("requeued stale analysis runs", "count", n)
	}
}

func (w *Worker) heartbeatLoop(ctx context.Context, run *types.AnalysisRun) {
	ticker := time.NewTicker(w.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.runs.Heartbeat(ctx, nil, run.ID); err != nil {
				w.log.Warn("heartbeat failed", "run_id", run.ID, "error", err)
			}
		}
	}
}
