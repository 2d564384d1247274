package chat

import (
	"strings"
	"time"
)

// SessionView is the client-facing description of a chat session.
// Credential is always masked.
type SessionView struct {
	ID            string    `json:"id"`
	Model         string    `json:"model"`
	Credential    string    `json:"credential,omitempty"`
	HasCredential bool      `json:"hasCredential"`
	MessageCount  int       `json:"messageCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MaskCredential hides all but the last four characters of a secret.
// Secrets of four characters or fewer are masked entirely.
func MaskCredential(credential string) string {
	if credential == "" {
		return ""
	}

	runes := []rune(credential)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}

	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
