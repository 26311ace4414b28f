package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/remote"
)

// remoteCopy is a fetched message with the message-id its body is cached
// under.
type remoteCopy struct {
	remote.Message
	MessageID string
}

// remoteIndex groups every note message in the listed folders by uuid.
type remoteIndex struct {
	folders map[string]bool
	byUUID  map[string][]remoteCopy
	order   []string
}

var folderToken = strings.NewReplacer("/", ".", " ", "_", "<", "", ">", "", "@", "")

// fetchRemote lists the note folders and indexes their messages. Messages
// without a note identifier are skipped. A copy without a usable
// Message-Id, or repeating one already seen, is keyed by folder and uid.
func fetchRemote(
	ctx context.Context,
	sess remote.Session,
	pattern string,
	p model.Profile,
	logger *slog.Logger,
) (*remoteIndex, error) {
	names, err := sess.ListFolders(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	idx := &remoteIndex{
		folders: make(map[string]bool, len(names)),
		byUUID:  make(map[string][]remoteCopy),
	}
	seen := make(map[string]bool)

	for _, folder := range names {
		idx.folders[folder] = true

		msgs, err := sess.FetchAll(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", folder, err)
		}

		for _, msg := range msgs {
			uuid, ok := msg.Headers.UUID()
			if !ok || uuid == "" {
				logger.Warn("skipping message without note identifier",
					"folder", folder, "uid", msg.UID)
				continue
			}

			id, ok := msg.Headers.MessageID()
			if !ok || id == "" || seen[id] {
				id = builder.MessageID(p, fmt.Sprintf("%s.%d", folderToken.Replace(folder), msg.UID))
			}
			seen[id] = true

			if _, exists := idx.byUUID[uuid]; !exists {
				idx.order = append(idx.order, uuid)
			}
			idx.byUUID[uuid] = append(idx.byUUID[uuid], remoteCopy{Message: msg, MessageID: id})
		}
	}

	logger.Debug("remote indexed", "folders", len(names), "notes", len(idx.order))
	return idx, nil
}

func (idx *remoteIndex) copies(uuid string) []remoteCopy {
	return idx.byUUID[uuid]
}

func (idx *remoteIndex) listed(folder string) bool {
	return idx.folders[folder]
}

// primary returns the folder of the first copy and the highest uid among
// the copies in that folder.
func primary(copies []remoteCopy) (string, int64) {
	folder := copies[0].Folder
	uid := copies[0].UID
	for _, c := range copies[1:] {
		if c.Folder == folder && c.UID > uid {
			uid = c.UID
		}
	}
	return folder, uid
}
