package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "Without cause",
			err:      NewServiceRejection("failed to upload a.msg: 500 Internal Server Error", nil),
			expected: "SERVICE_REJECTION: failed to upload a.msg: 500 Internal Server Error",
		},
		{
			name:     "With cause",
			err:      NewReadError("a.msg", io.ErrUnexpectedEOF),
			expected: "READ_ERROR: failed to read a.msg (unexpected EOF)",
		},
		{
			name:     "Not found",
			err:      NewNotFoundError("issue 42"),
			expected: "NOT_FOUND: issue 42 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	transport := NewTransportError("failed to upload a.msg", io.EOF)
	wrapped := fmt.Errorf("submit: %w", transport)

	assert.True(t, IsTransport(wrapped))
	assert.False(t, IsRejection(wrapped))
	assert.ErrorIs(t, wrapped, io.EOF)
	assert.Equal(t, ErrCodeTransport, CodeOf(wrapped))

	assert.True(t, IsRejection(NewServiceRejection("bad payload", nil)))
	assert.True(t, IsNotFound(NewNotFoundError("issue")))
	assert.Equal(t, ErrCode(""), CodeOf(io.EOF))
	assert.Equal(t, ErrCode(""), CodeOf(nil))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "Nil", err: nil, expected: ""},
		{name: "Plain error", err: io.EOF, expected: "EOF"},
		{
			name:     "App error without cause",
			err:      NewServiceRejection("failed to upload a.msg: 502 Bad Gateway", nil),
			expected: "failed to upload a.msg: 502 Bad Gateway",
		},
		{
			name:     "Wrapped app error with cause",
			err:      fmt.Errorf("outer: %w", NewTransportError("failed to upload a.msg", io.ErrUnexpectedEOF)),
			expected: "failed to upload a.msg: unexpected EOF",
		},
		{
			name:     "App error with only a cause",
			err:      NewTransportError("", io.ErrUnexpectedEOF),
			expected: "unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Describe(tt.err))
		})
	}
}
