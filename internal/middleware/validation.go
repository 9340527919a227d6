package middleware

import (
	"errors"
	"unicode/utf8"
)

const (
	maxMessageContentBytes = 100000
	maxConversationLength  = 200
)

// ValidateMessageContent validates one chat message body.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxMessageContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateConversationLength bounds the replayed transcript size.
func ValidateConversationLength(count int) error {
	if count == 0 {
		return errors.New("messages cannot be empty")
	}
	if count > maxConversationLength {
		return errors.New("conversation exceeds maximum length")
	}
	return nil
}
