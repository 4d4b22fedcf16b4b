package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"assessment-gateway/internal/logger"
)

// Worker re-drives tasks the inline dispatch could not finish. It polls on a
// fixed interval and hands batches to the dispatcher.
//
// TODO: re-queue tasks stuck in "processing" after a crash between claim and
// outcome; right now those need a manual status reset.
type Worker struct {
	Dispatcher *Dispatcher
	Interval   time.Duration
	BatchSize  int
	Logger     *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(dispatcher *Dispatcher, interval time.Duration, batchSize int, log *logger.Logger) *Worker {
	return &Worker{
		Dispatcher: dispatcher,
		Interval:   interval,
		BatchSize:  batchSize,
		Logger:     log,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the poll loop in its own goroutine until Stop is called or ctx
// is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.Logger.Info("OUTBOX", fmt.Sprintf("worker started (interval %s, batch %d)", w.Interval, w.BatchSize))
	ticker := time.NewTicker(w.Interval)

	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.Dispatcher.DispatchBatch(ctx, w.BatchSize)
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight batch to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.Logger.Info("OUTBOX", "stopping worker")
		close(w.stop)
	})
	<-w.done
}
