package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerifyEmail(t *testing.T) {
	subject, html, err := Render(VerifyEmail, map[string]any{
		"Name":      "Alice",
		"VerifyURL": "https://app.example/verify-email?token=abc",
		"ExpiresIn": "24h0m0s",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.Contains(t, html, "Alice")
	assert.Contains(t, html, "https://app.example/verify-email?token=abc")
}

func TestRenderFallbackGreeting(t *testing.T) {
	_, html, err := Render(ResetPassword, map[string]any{
		"Email":     "alice@example.com",
		"ResetURL":  "https://app.example/reset-password?token=abc",
		"ExpiresIn": "30m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "there")
	assert.Contains(t, html, "alice@example.com")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("welcome", nil)
	assert.Error(t, err)
}
