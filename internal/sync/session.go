package sync

import (
	"log/slog"

	"github.com/nhle/notesync/internal/remote"
)

func logout(sess remote.Session, logger *slog.Logger) {
	if err := sess.Logout(); err != nil {
		logger.Debug("logout failed", "error", err)
	}
}
