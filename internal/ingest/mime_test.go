package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail_PlainText(t *testing.T) {
	raw := strings.Join([]string{
		"From: Alice Hayes <alice@example.com>",
		"To: support@triage.example.com",
		"Subject: Cannot log in",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"My password reset link never arrives.",
	}, "\r\n")

	parsed, err := ParseEmail([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Cannot log in", parsed.Subject)
	assert.Equal(t, "Alice Hayes", parsed.FromName)
	assert.Equal(t, "alice@example.com", parsed.FromAddr)
	assert.Contains(t, parsed.Text, "password reset link")
}

func TestParseEmail_NoContentType(t *testing.T) {
	raw := strings.Join([]string{
		"From: bob@example.com",
		"Subject: Hello",
		"",
		"just plain text",
	}, "\r\n")

	parsed, err := ParseEmail([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", parsed.FromAddr)
	assert.Equal(t, "just plain text", parsed.Text)
}

func TestParseEmail_MultipartPrefersPlainText(t *testing.T) {
	raw := strings.Join([]string{
		"From: carol@example.com",
		"Subject: Invoice question",
		"Content-Type: multipart/alternative; boundary=BOUNDARY",
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Where is my invoice?",
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Where is my invoice?</p>",
		"--BOUNDARY--",
		"",
	}, "\r\n")

	parsed, err := ParseEmail([]byte(raw))
	require.NoError(t, err)

	assert.Contains(t, parsed.Text, "Where is my invoice?")
	assert.NotContains(t, parsed.Text, "<p>")
}

func TestParseEmail_SkipsAttachments(t *testing.T) {
	raw := strings.Join([]string{
		"From: dave@example.com",
		"Subject: Logs attached",
		"Content-Type: multipart/mixed; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"See the attached log file.",
		"--XYZ",
		"Content-Type: application/octet-stream",
		"Content-Disposition: attachment; filename=\"app.log\"",
		"",
		"binarydata",
		"--XYZ--",
		"",
	}, "\r\n")

	parsed, err := ParseEmail([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "See the attached log file.", strings.TrimSpace(parsed.Text))
	assert.NotContains(t, parsed.Text, "binarydata")
}

func TestParseEmail_QuotedPrintable(t *testing.T) {
	raw := strings.Join([]string{
		"From: eve@example.com",
		"Subject: =?utf-8?q?Caf=C3=A9_closed?=",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"The caf=C3=A9 is closed.",
	}, "\r\n")

	parsed, err := ParseEmail([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Café closed", parsed.Subject)
	assert.Contains(t, parsed.Text, "café is closed")
}

func TestIPLimiter(t *testing.T) {
	limiter := NewIPLimiter(2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// 不同 IP 互不影响
	assert.True(t, limiter.Allow("10.0.0.2"))
}
