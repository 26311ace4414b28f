package header

import (
	"bytes"
	"fmt"
	"io"
	"mime"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// Encode renders the block and body as an RFC 5322 message. The body is
// written through the transfer encoding named in the block, so a
// quoted-printable note is encoded on the way out. Non-ASCII header values
// are written as encoded words. Fields keep the block's order.
func Encode(b Block, body string) ([]byte, error) {
	var h message.Header
	// Header.Add prepends, so add from the bottom up.
	for i := len(b) - 1; i >= 0; i-- {
		h.Add(b[i].Name, mime.QEncoding.Encode("utf-8", b[i].Value))
	}

	var buf bytes.Buffer
	w, err := message.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode parses a raw message into its header block and decoded body.
// Unknown charsets are tolerated; the body is then returned undecoded.
func Decode(raw []byte) (Block, string, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, "", fmt.Errorf("parsing message: %w", err)
	}

	var block Block
	fields := entity.Header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		block = append(block, Field{Name: fields.Key(), Value: value})
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return block, "", fmt.Errorf("reading message body: %w", err)
	}

	return block, string(body), nil
}
