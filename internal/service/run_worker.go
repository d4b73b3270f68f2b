package service

import (
	"context"
	"log"
	"sync"
	"time"

	"evicite/internal/port"
)

// RunWorkerConfig holds settings for the run worker.
type RunWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
	RunTimeout   time.Duration
}

// RunWorker polls for pending verification runs and dispatches them for
// processing.
type RunWorker struct {
	runRepo    port.RunRepository
	runService RunService
	cfg        RunWorkerConfig
	wg         sync.WaitGroup
}

// NewRunWorker creates a new RunWorker.
func NewRunWorker(runRepo port.RunRepository, runService RunService, cfg RunWorkerConfig) *RunWorker {
	return &RunWorker{
		runRepo:    runRepo,
		runService: runService,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight runs have finished.
func (w *RunWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("runWorker: started (poll=%s, concurrency=%d, runTimeout=%s)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.RunTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Printf("runWorker: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("runWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			runs, err := w.runRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("runWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range runs {
				run := runs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), w.cfg.RunTimeout)
					defer cancel()

					log.Printf("runWorker: dispatching run %s (%d citations)", run.ID, run.Total)
					w.runService.ExecuteRun(runCtx, &run)
				}()
			}
		}
	}
}
