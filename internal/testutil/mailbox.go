package testutil

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/remote"
)

// ErrInjected is the default failure returned by Mailbox hooks.
var ErrInjected = errors.New("injected failure")

type storedMessage struct {
	uid int64
	raw []byte
}

type folder struct {
	nextUID  int64
	messages []storedMessage
}

// Mailbox is an in-memory remote.Dialer. Messages are kept in their raw
// encoded form and decoded on fetch, so everything passes through the
// header codec.
type Mailbox struct {
	mu      sync.Mutex
	folders map[string]*folder

	// Gate, when non-nil, blocks Dial until it is closed.
	Gate chan struct{}

	// Dialing is signalled (non-blocking) whenever Dial is entered.
	Dialing chan struct{}

	// DialErr, AppendErr and DeleteErr make the matching call fail.
	DialErr   error
	AppendErr error
	DeleteErr error

	Appends int
	Deletes int
	Dials   int
}

// NewMailbox creates a mailbox holding the given empty folders.
func NewMailbox(folders ...string) *Mailbox {
	m := &Mailbox{folders: make(map[string]*folder)}
	for _, name := range folders {
		m.folders[name] = &folder{nextUID: 1}
	}
	return m
}

// Put stores a raw message and returns its uid.
func (m *Mailbox) Put(folderName string, raw []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(folderName, raw)
}

// PutNote encodes a note the way the Notes application would and stores it.
func (m *Mailbox) PutNote(p model.Profile, folderName, uuid, html string) (int64, string) {
	body := builder.NewBody(p).WithText(html).Build()
	md := builder.NewMetadata().WithUUID(uuid).WithFolder(folderName).Build()
	raw, err := header.Encode(builder.Outgoing(p, md, body), html)
	if err != nil {
		panic(err)
	}
	return m.Put(folderName, raw), body.MessageID
}

// Messages decodes and returns every message in folder.
func (m *Mailbox) Messages(folderName string) []remote.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, err := m.decode(folderName)
	if err != nil {
		panic(err)
	}
	return msgs
}

// UUIDCount returns how many messages in folder carry uuid.
func (m *Mailbox) UUIDCount(folderName, uuid string) int {
	n := 0
	for _, msg := range m.Messages(folderName) {
		if id, ok := msg.Headers.UUID(); ok && id == uuid {
			n++
		}
	}
	return n
}

// Remove deletes a message directly, as another device would.
func (m *Mailbox) Remove(folderName string, uid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.folders[folderName]; ok {
		f.messages = slices.DeleteFunc(f.messages, func(s storedMessage) bool { return s.uid == uid })
	}
}

func (m *Mailbox) Dial(ctx context.Context) (remote.Session, error) {
	if m.Dialing != nil {
		select {
		case m.Dialing <- struct{}{}:
		default:
		}
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, &remote.TransportError{Kind: remote.KindConnection, Op: "dial", Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dials++
	if m.DialErr != nil {
		return nil, &remote.TransportError{Kind: remote.KindAuth, Op: "login", Err: m.DialErr}
	}
	return &mailboxSession{m: m}, nil
}

func (m *Mailbox) put(folderName string, raw []byte) int64 {
	f, ok := m.folders[folderName]
	if !ok {
		f = &folder{nextUID: 1}
		m.folders[folderName] = f
	}
	uid := f.nextUID
	f.nextUID++
	f.messages = append(f.messages, storedMessage{uid: uid, raw: slices.Clone(raw)})
	return uid
}

func (m *Mailbox) decode(folderName string) ([]remote.Message, error) {
	f, ok := m.folders[folderName]
	if !ok {
		return nil, &remote.TransportError{
			Kind: remote.KindProtocol,
			Op:   "select " + folderName,
			Err:  errors.New("no such mailbox"),
		}
	}
	var msgs []remote.Message
	for _, s := range f.messages {
		block, body, err := header.Decode(s.raw)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, remote.Message{Folder: folderName, UID: s.uid, Headers: block, Body: body})
	}
	return msgs, nil
}

type mailboxSession struct {
	m *Mailbox
}

func (s *mailboxSession) ListFolders(_ context.Context, pattern string) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	re := listPattern(pattern)
	var names []string
	for name := range s.m.folders {
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *mailboxSession) FetchAll(_ context.Context, folderName string) ([]remote.Message, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.decode(folderName)
}

func (s *mailboxSession) Append(_ context.Context, folderName string, raw []byte) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.AppendErr != nil {
		return 0, &remote.TransportError{Kind: remote.KindConnection, Op: "append", Err: s.m.AppendErr}
	}
	s.m.Appends++
	return s.m.put(folderName, raw), nil
}

func (s *mailboxSession) Delete(_ context.Context, folderName string, uid int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.DeleteErr != nil {
		return &remote.TransportError{Kind: remote.KindConnection, Op: "delete", Err: s.m.DeleteErr}
	}
	f, ok := s.m.folders[folderName]
	if !ok {
		return &remote.TransportError{Kind: remote.KindProtocol, Op: "select " + folderName, Err: errors.New("no such mailbox")}
	}
	s.m.Deletes++
	f.messages = slices.DeleteFunc(f.messages, func(m storedMessage) bool { return m.uid == uid })
	return nil
}

func (s *mailboxSession) Logout() error { return nil }

// listPattern turns an IMAP LIST pattern into a regexp. "*" matches
// anything, "%" anything but the hierarchy delimiter.
func listPattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '%':
			b.WriteString("[^/]*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
