package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// AuthError indicates that authentication with the mail server failed.
// It is surfaced once at connect time and never retried automatically.
type AuthError struct {
	Username string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Username, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Session is one authenticated connection to the mail source. Connections
// are not shared across workers; IMAP command interleaving on a single
// session is a protocol hazard.
type Session interface {
	// Select opens a mailbox and returns its message count.
	Select(mailbox string) (uint32, error)

	// Search lists identifiers of candidate messages. A zero since time
	// means all messages; otherwise the server filters by date.
	Search(since time.Time) ([]uint32, error)

	// Fetch retrieves the full raw bytes of one message.
	Fetch(id uint32) ([]byte, error)

	Close() error
}

// Dialer opens authenticated sessions. Each fetch worker dials its own.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// IMAPDialer connects to an IMAP server with go-imap v2.
type IMAPDialer struct {
	Host     string
	Port     string
	Username string
	Password string

	// TLS selects implicit TLS; when false the connection upgrades via
	// STARTTLS.
	TLS bool
}

// Dial establishes a connection, authenticates and returns the session.
func (d *IMAPDialer) Dial(_ context.Context) (Session, error) {
	addr := d.Host + ":" + d.Port

	var client *imapclient.Client
	var err error

	if d.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(d.Username, d.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Username: d.Username,
			Message:  fmt.Sprintf("authentication failed: %v", err),
		}
	}

	return &imapSession{client: client}, nil
}

// imapSession adapts an imapclient connection to the Session contract.
type imapSession struct {
	client *imapclient.Client
}

func (s *imapSession) Select(mailbox string) (uint32, error) {
	data, err := s.client.Select(mailbox, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("selecting %s: %w", mailbox, err)
	}
	return data.NumMessages, nil
}

func (s *imapSession) Search(since time.Time) ([]uint32, error) {
	criteria := &imap.SearchCriteria{}
	if !since.IsZero() {
		criteria.Since = since
	}

	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := data.AllUIDs()
	ids := make([]uint32, len(uids))
	for i, uid := range uids {
		ids[i] = uint32(uid)
	}
	return ids, nil
}

func (s *imapSession) Fetch(id uint32) ([]byte, error) {
	uidSet := imap.UIDSetNum(imap.UID(id))

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", id)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message %d: %w", id, err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message %d has no body section", id)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("closing fetch for %d: %w", id, err)
	}
	return raw, nil
}

func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
