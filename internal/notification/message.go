// Package notification queues outbound link emails and delivers them from
// background workers, so request handlers never wait on SMTP.
package notification

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/redmonkez12/eventhub-auth/internal/token"
)

// Message is one queued email carrying a link token.
type Message struct {
	ID        string        `json:"id"`
	To        string        `json:"to"`
	Token     string        `json:"token"`
	Purpose   token.Purpose `json:"purpose"`
	CreatedAt time.Time     `json:"created_at"`
}

func NewMessage(to, tok string, purpose token.Purpose, now time.Time) Message {
	return Message{
		ID:        ulid.Make().String(),
		To:        to,
		Token:     tok,
		Purpose:   purpose,
		CreatedAt: now.UTC(),
	}
}
