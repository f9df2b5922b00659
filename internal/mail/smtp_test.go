package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		"Sistema de Cobrança",
		"noreply@example.com",
		"joao@email.com",
		"Lembrete: Cobrança vence em breve",
		"Olá João,\nsua cobrança vence amanhã.",
	))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, found, "message must separate headers from body with a blank line")

	assert.Contains(t, headers, "From: Sistema de Cobrança <noreply@example.com>")
	assert.Contains(t, headers, "To: joao@email.com")
	assert.Contains(t, headers, "Subject: ")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=UTF-8")

	// Body lines must be CRLF framed.
	assert.Contains(t, body, "Olá João,\r\nsua cobrança vence amanhã.")
	assert.NotContains(t, strings.ReplaceAll(body, "\r\n", ""), "\n")
}

func TestBuildMessage_SubjectEncoded(t *testing.T) {
	msg := string(buildMessage("A", "a@b.c", "d@e.f", "Confirmação", "x"))

	// Non-ASCII subjects are Q-encoded per RFC 2047.
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.NotContains(t, msg, "Subject: Confirmação")
}
