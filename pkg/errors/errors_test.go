package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidParameter, "missing required parameter: %s", "name")

	if err.Code != ErrCodeInvalidParameter {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidParameter)
	}

	if err.Message != "missing required parameter: name" {
		t.Errorf("Message = %v, want %v", err.Message, "missing required parameter: name")
	}

	expected := "INVALID_PARAMETER: missing required parameter: name"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("dot: syntax error")
	err := Wrap(ErrCodeRendering, cause, "render png")

	if err.Code != ErrCodeRendering {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRendering)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	if !strings.Contains(err.Error(), "dot: syntax error") {
		t.Errorf("Error() should include cause: %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeNotInitialized, "test"),
			code:     ErrCodeNotInitialized,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeNotInitialized, "test"),
			code:     ErrCodeRendering,
			expected: false,
		},
		{
			name:     "outermost code wins",
			err:      Wrap(ErrCodeRendering, New(ErrCodeInvalidFormat, "inner"), "outer"),
			code:     ErrCodeRendering,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("step 3: %w", NotInitialized("declare_node")),
			code:     ErrCodeNotInitialized,
			expected: true,
		},
		{
			name:     "typed command not found",
			err:      &CommandNotFoundError{Name: "x"},
			code:     ErrCodeCommandNotFound,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", Parameter("bad"), ErrCodeInvalidParameter},
		{"typed error", fmt.Errorf("lookup: %w", &CommandNotFoundError{Name: "x"}), ErrCodeCommandNotFound},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCommandNotFoundError(t *testing.T) {
	err := &CommandNotFoundError{Name: "draw", Available: []string{"initialize", "materialize"}}

	want := `command "draw" not found; available commands: [initialize, materialize]`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Code() != ErrCodeCommandNotFound {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeCommandNotFound)
	}
}

func TestNotInitialized(t *testing.T) {
	err := NotInitialized("declare_cluster")
	if err.Code != ErrCodeNotInitialized {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNotInitialized)
	}
	if !strings.Contains(err.Message, "declare_cluster") {
		t.Errorf("Message should name the operation: %q", err.Message)
	}
}
