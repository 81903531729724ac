package email

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	addr string
	from string
	to   []string
	msg  []byte
	err  error
}

func (c *capture) send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	c.addr, c.from, c.to, c.msg = addr, from, to, msg
	return c.err
}

func newService(c *capture) *EmailService {
	s := NewEmailService(EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromName:  "Sales Team",
		FromEmail: "sales@example.com",
	})
	s.send = c.send
	return s
}

func TestSendQuotationAttachesPDF(t *testing.T) {
	c := &capture{}
	pdf := bytes.Repeat([]byte("%PDF-1.7 body "), 20)

	err := newService(c).SendQuotation(&QuotationMessage{
		To:              "buyer@example.com",
		ClientName:      "Ahmed",
		CompanyName:     "Gulf Industrial Co.",
		Number:          "QTN-2026-001",
		GrandTotal:      "29.663",
		Currency:        "OMR",
		SalespersonName: "Sara Ali",
		Document:        Attachment{Filename: "QTN-2026-001.pdf", ContentType: "application/pdf", Data: pdf},
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.Equal(t, []string{"buyer@example.com"}, c.to)

	m, err := mail.ReadMessage(bytes.NewReader(c.msg))
	require.NoError(t, err)
	assert.Equal(t, "Quotation QTN-2026-001", m.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	r := multipart.NewReader(m.Body, params["boundary"])
	html, err := r.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(html)
	require.NoError(t, err)
	assert.Contains(t, string(body), "29.663 OMR")
	assert.Contains(t, string(body), "Dear Ahmed")

	att, err := r.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "QTN-2026-001.pdf", att.FileName())
	// multipart.Reader leaves base64 bodies encoded.
	raw, err := io.ReadAll(att)
	require.NoError(t, err)
	assert.Equal(t, wrapBase64(pdf), raw)
}

func TestSendQuotationRequiresRecipient(t *testing.T) {
	c := &capture{}
	err := newService(c).SendQuotation(&QuotationMessage{Number: "QTN-2026-001"})
	assert.Error(t, err)
	assert.Nil(t, c.msg)
}

func TestSendQuotationSMTPFailure(t *testing.T) {
	c := &capture{err: errors.New("connection refused")}
	err := newService(c).SendQuotation(&QuotationMessage{To: "a@example.com", Number: "QTN-2026-002"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestWrapBase64LineLength(t *testing.T) {
	out := wrapBase64(bytes.Repeat([]byte{0xff}, 200))
	for _, line := range bytes.Split(out, []byte("\r\n")) {
		assert.LessOrEqual(t, len(line), 76)
	}
}
