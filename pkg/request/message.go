package request

import "fmt"

// Message represents a message response.
type Message struct {
	Message string `json:"message"`
}

// NewMessage creates a new Message.
func NewMessage(message string, args ...any) *Message {
	var msg string
	if len(args) > 0 {
		msg = fmt.Sprintf(message, args...)
	} else {
		msg = message
	}
	return &Message{
		Message: msg,
	}
}

// MessageError is a message response carrying the error that caused it, e.g. a form that could not be parsed.
type MessageError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewMessageError(message string, err error) *MessageError {
	return &MessageError{
		Message: message,
		Error:   err.Error(),
	}
}
