package workers

import (
	"context"
	"time"

	"talkio_backend/internal/logger"
)

// Sweeper runs one liveness round and reports how many connections it
// dropped.
type Sweeper interface {
	Sweep() int
	PingInterval() time.Duration
}

type LivenessWorker struct {
	hub Sweeper
}

func NewLivenessWorker(hub Sweeper) *LivenessWorker {
	return &LivenessWorker{hub: hub}
}

// Start runs the monitor in the background until ctx is cancelled.
func (w *LivenessWorker) Start(ctx context.Context) {
	go w.Run(ctx)
}

func (w *LivenessWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.hub.PingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Liveness worker stopped")
			return
		case <-ticker.C:
			if n := w.hub.Sweep(); n > 0 {
				logger.Info("Terminated unresponsive connections", "count", n)
			}
		}
	}
}
