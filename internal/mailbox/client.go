package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/remote"
)

// IMAPClient wraps go-imap v2 for reading and writing note folders.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	tls      bool
	logger   *slog.Logger
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(
	host, port, username, password string, tls bool, logger *slog.Logger,
) *IMAPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
		logger:   logger,
	}
}

// Dial establishes a connection to the IMAP server and authenticates.
// The caller is responsible for calling Logout on the returned session.
func (c *IMAPClient) Dial(ctx context.Context) (remote.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &remote.TransportError{Kind: remote.KindConnection, Op: "dial", Err: err}
	}

	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, &remote.TransportError{
			Kind: remote.KindConnection,
			Op:   "dial " + addr,
			Err:  err,
		}
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &remote.TransportError{
			Kind: remote.KindAuth,
			Op:   "login " + c.username,
			Err:  err,
		}
	}

	c.logger.Debug("imap session opened", "addr", addr, "user", c.username)
	return &session{client: client, logger: c.logger}, nil
}

// session is one authenticated IMAP connection.
type session struct {
	client   *imapclient.Client
	logger   *slog.Logger
	selected string
}

func (s *session) ListFolders(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError("list", err)
	}

	mailboxes, err := s.client.List("", pattern, nil).Collect()
	if err != nil {
		return nil, transportError("list "+pattern, err)
	}

	var names []string
	for _, mbox := range mailboxes {
		if slices.Contains(mbox.Attrs, imap.MailboxAttrNoSelect) {
			continue
		}
		names = append(names, mbox.Mailbox)
	}
	slices.Sort(names)
	return names, nil
}

func (s *session) FetchAll(ctx context.Context, folder string) ([]remote.Message, error) {
	if err := s.selectFolder(ctx, folder); err != nil {
		return nil, err
	}

	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, transportError("search "+folder, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var messages []remote.Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			return messages, transportError("fetch "+folder, err)
		}

		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			s.logger.Warn("message without body", "folder", folder, "uid", buf.UID)
			continue
		}

		block, body, err := header.Decode(raw)
		if err != nil {
			s.logger.Warn("skipping unparsable message",
				"folder", folder, "uid", buf.UID, "error", err)
			continue
		}

		messages = append(messages, remote.Message{
			Folder:  folder,
			UID:     int64(buf.UID),
			Headers: block,
			Body:    body,
		})
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, transportError("fetch "+folder, err)
	}

	return messages, nil
}

// Append stores raw in folder. Servers without UIDPLUS do not report the
// assigned uid, so it is looked up by Message-Id afterwards.
func (s *session) Append(ctx context.Context, folder string, raw []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, transportError("append", err)
	}

	appendCmd := s.client.Append(folder, int64(len(raw)), nil)
	if _, err := appendCmd.Write(raw); err != nil {
		_ = appendCmd.Close()
		return 0, transportError("append "+folder, err)
	}
	if err := appendCmd.Close(); err != nil {
		return 0, transportError("append "+folder, err)
	}

	data, err := appendCmd.Wait()
	if err != nil {
		return 0, transportError("append "+folder, err)
	}
	if data != nil && data.UID != 0 {
		return int64(data.UID), nil
	}

	return s.lookupUID(ctx, folder, raw)
}

// lookupUID finds the highest uid in folder whose Message-Id matches the
// one in raw.
func (s *session) lookupUID(ctx context.Context, folder string, raw []byte) (int64, error) {
	block, _, err := header.Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("reading appended message: %w", err)
	}
	messageID, ok := block.MessageID()
	if !ok {
		return 0, errors.New("appended message has no Message-Id")
	}

	// Force a fresh SELECT so the new message is visible.
	s.selected = ""
	if err := s.selectFolder(ctx, folder); err != nil {
		return 0, err
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: header.MessageID, Value: messageID},
		},
	}
	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return 0, transportError("search "+folder, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return 0, transportError("append "+folder,
			fmt.Errorf("appended message %s not found", messageID))
	}
	return int64(slices.Max(uids)), nil
}

func (s *session) Delete(ctx context.Context, folder string, uid int64) error {
	if err := s.selectFolder(ctx, folder); err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return transportError(fmt.Sprintf("flag %s/%d", folder, uid), err)
	}

	var expungeErr error
	if s.client.Caps().Has(imap.CapUIDPlus) {
		expungeErr = s.client.UIDExpunge(uidSet).Close()
	} else {
		expungeErr = s.client.Expunge().Close()
	}
	if expungeErr != nil {
		return transportError("expunge "+folder, expungeErr)
	}

	return nil
}

func (s *session) Logout() error {
	if err := s.client.Logout().Wait(); err != nil {
		_ = s.client.Close()
		return transportError("logout", err)
	}
	return nil
}

func (s *session) selectFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return transportError("select", err)
	}
	if s.selected == folder {
		return nil
	}
	if _, err := s.client.Select(folder, nil).Wait(); err != nil {
		return transportError("select "+folder, err)
	}
	s.selected = folder
	return nil
}

// transportError classifies err: server NO/BAD replies are protocol
// errors, everything else is treated as a broken connection.
func transportError(op string, err error) error {
	kind := remote.KindConnection
	var imapErr *imap.Error
	if errors.As(err, &imapErr) {
		kind = remote.KindProtocol
	}
	return &remote.TransportError{Kind: kind, Op: op, Err: err}
}

// compile-time check
var _ remote.Dialer = (*IMAPClient)(nil)
