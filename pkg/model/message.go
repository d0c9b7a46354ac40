package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxContentLength = 1024

var ErrContentTooLong = fmt.Errorf("message content exceeds %d characters", MaxContentLength)
var ErrContentEmpty = errors.New("message content cannot be empty")

// Message is one chat line: either a user message or a SYSTEM notice.
type Message struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return ErrContentEmpty
	} else if utf8.RuneCountInString(m.Content) > MaxContentLength {
		return ErrContentTooLong
	}

	return nil
}
