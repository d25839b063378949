package parser

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

var stripTags = bluemonday.StrictPolicy()

// ParseEML parses an RFC 5322 message. Attachments are skipped.
func ParseEML(r io.Reader) (*ParsedEmail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	parsed := &ParsedEmail{}
	header := mr.Header

	parsed.Subject = decodeMIMEWord(header.Get("Subject"))

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		parsed.Sender = fromAddrs[0].Address
		parsed.SenderName = fromAddrs[0].Name
	}

	if date, err := header.Date(); err == nil {
		parsed.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && parsed.BodyText == "":
			parsed.BodyText = string(body)
		case strings.HasPrefix(contentType, "text/html") && parsed.BodyHTML == "":
			parsed.BodyHTML = string(body)
		}
	}

	return parsed, nil
}

// Text renders the message as plain text: From, Date and Subject lines,
// a blank line, then the body. HTML-only bodies are reduced to their text.
func (p *ParsedEmail) Text() string {
	var b strings.Builder

	from := p.Sender
	if p.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", p.SenderName, p.Sender)
	}
	fmt.Fprintf(&b, "From: %s\n", from)
	if !p.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", p.Date.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", p.Subject)

	body := p.BodyText
	if strings.TrimSpace(body) == "" && p.BodyHTML != "" {
		body = htmlToText(p.BodyHTML)
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")

	return b.String()
}

// FlattenEML parses raw message bytes and returns their text rendering
func FlattenEML(data []byte) (string, error) {
	parsed, err := ParseEML(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return parsed.Text(), nil
}

func htmlToText(s string) string {
	// keep block boundaries as line breaks before tags are dropped
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>", "</tr>"} {
		s = strings.ReplaceAll(s, tag, tag+"\n")
	}
	text := html.UnescapeString(stripTags.Sanitize(s))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := &mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
