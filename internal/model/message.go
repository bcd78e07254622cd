package model

import (
	"strings"
	"time"
)

// Message is an email record as fetched from the server. Once parsed it is
// treated as immutable; classification and storage only read from it.
type Message struct {
	// Subject, To and From hold the raw header line values. Encoded-word
	// headers are kept as-is; matching only normalizes via lowercasing.
	Subject string
	To      string
	From    string

	// Date is the RFC 2822 Date header parsed into a timestamp.
	Date time.Time

	// Parts are the MIME leaves of the body in document order.
	Parts []Part

	// Raw is the full RFC 2822 message as received, used for blob storage.
	Raw []byte
}

// Part is one MIME leaf of a message body.
type Part struct {
	// MediaType is the full content type, e.g. "text/plain" or "image/png".
	MediaType string

	// Filename is the attachment filename; empty for inline parts.
	Filename string

	Body []byte
}

// MainType returns the media maintype ("text" for "text/html").
func (p Part) MainType() string {
	mt, _, _ := strings.Cut(p.MediaType, "/")
	return mt
}

// SubType returns the media subtype ("html" for "text/html").
func (p Part) SubType() string {
	_, st, _ := strings.Cut(p.MediaType, "/")
	return st
}

// IsAttachment reports whether the part carries a named attachment.
func (p Part) IsAttachment() bool {
	return strings.TrimSpace(p.Filename) != ""
}

// MessageKey identifies a message by its headers. Server-assigned sequence
// numbers are session-relative and never persisted, so deduplication and
// tagging key off this tuple instead.
type MessageKey struct {
	Subject string
	Date    time.Time
	To      string
	From    string
}

// Key returns the identity key used for deduplication and tagging.
func (m *Message) Key() MessageKey {
	return MessageKey{
		Subject: m.Subject,
		Date:    m.Date,
		To:      m.To,
		From:    m.From,
	}
}
