// Package parse turns raw RFC 2822 message bytes into the structured
// Message record the rest of the system works with.
package parse

import (
	"bytes"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	_ "github.com/emersion/go-message/charset"

	"github.com/nhle/mailtriage/internal/model"
)

// missingSubject is stored when a message arrives without a Subject header.
const missingSubject = "No subject provided..."

// Message parses raw message bytes into a Message: header values, the parsed
// Date timestamp, and the MIME body flattened into parts in document order.
// Messages that cannot be read as MIME are kept as a single text/plain part
// so that their content is still searchable.
func Message(raw []byte) (*model.Message, error) {
	msg := &model.Message{Raw: raw}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if mr != nil {
		fillHeaders(msg, mr)
	}
	if err != nil {
		// Header-only or malformed body: treat everything after the
		// headers as plain text rather than failing the whole message.
		if msg.Subject == "" {
			msg.Subject = missingSubject
		}
		msg.Parts = []model.Part{{MediaType: "text/plain", Body: raw}}
		return msg, nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			msg.Parts = append(msg.Parts, model.Part{
				MediaType: contentType,
				Body:      body,
			})

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			msg.Parts = append(msg.Parts, model.Part{
				MediaType: contentType,
				Filename:  filename,
				Body:      body,
			})
		}
	}

	return msg, nil
}

// fillHeaders copies the identity headers out of the mail reader. Raw header
// line values are kept; matching normalizes by lowercasing only, and display
// decoding is a caller concern.
func fillHeaders(msg *model.Message, mr *mail.Reader) {
	msg.Subject = mr.Header.Get("Subject")
	if msg.Subject == "" {
		msg.Subject = missingSubject
	}
	msg.To = mr.Header.Get("To")
	msg.From = mr.Header.Get("From")

	if date, err := mr.Header.Date(); err == nil {
		msg.Date = date.UTC()
	} else {
		msg.Date = time.Time{}
	}
}
