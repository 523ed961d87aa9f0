package workers

import (
	"context"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/repositories"
)

// PresenceWorker clears online flags left behind by a previous process.
// No connection survives a restart, so anything still marked online is
// stale.
type PresenceWorker struct {
	users repositories.UserStore
}

func NewPresenceWorker(users repositories.UserStore) *PresenceWorker {
	return &PresenceWorker{users: users}
}

func (w *PresenceWorker) ResetStale(ctx context.Context) error {
	n, err := w.users.ResetOnlineStatus(ctx)
	if err != nil {
		logger.WorkerLog("presence", "reset_stale", err)
		return err
	}
	if n > 0 {
		logger.Info("Reset stale online flags", "count", n)
	}
	return nil
}
