package common

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message replied to the Discord user; empty means log only
	LogMessage  string // Internal message for logging
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// Replyable reports whether the error carries a message for the user
func (e *BotError) Replyable() bool {
	return e.UserMessage != ""
}

// NewUserError creates an error for user-caused issues (bad input, unreachable target)
func NewUserError(err error, userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Err:         err,
	}
}

// NewSystemError creates an error for system issues that are only logged
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		LogMessage: logMessage,
		Err:        err,
	}
}

// LogError logs err with the given fields. BotErrors caused by the user are
// logged at info, everything else at error.
func LogError(fields log.Fields, err error) {
	entry := log.WithFields(fields)

	var botErr *BotError
	if errors.As(err, &botErr) {
		if botErr.Replyable() {
			entry.WithError(botErr.Err).Info(botErr.LogMessage)
			return
		}
		entry.WithError(botErr.Err).Error(botErr.LogMessage)
		return
	}

	entry.WithError(err).Error("Unhandled error")
}
